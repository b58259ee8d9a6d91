package panel

import "slices"

// ActionKind identifies a header action a page can expose
type ActionKind string

const (
	ActionCreate      ActionKind = "create"
	ActionEdit        ActionKind = "edit"
	ActionDelete      ActionKind = "delete"
	ActionView        ActionKind = "view"
	ActionForceDelete ActionKind = "force_delete"
	ActionRestore     ActionKind = "restore"
)

// AllActionKinds returns every known action kind
func AllActionKinds() []ActionKind {
	return []ActionKind{
		ActionCreate,
		ActionEdit,
		ActionDelete,
		ActionView,
		ActionForceDelete,
		ActionRestore,
	}
}

// IsValid reports whether the action kind is known
func (a ActionKind) IsValid() bool {
	return slices.Contains(AllActionKinds(), a)
}

// RequiresSoftDelete reports whether the action only makes sense on soft-deletable resources
func (a ActionKind) RequiresSoftDelete() bool {
	return a == ActionForceDelete || a == ActionRestore
}

// TranslationKey returns the label key used by the localization table
func (a ActionKind) TranslationKey() string {
	return "actions." + string(a) + ".label"
}

// String returns the string representation of the action kind
func (a ActionKind) String() string {
	return string(a)
}

// PageType is one interaction mode over a resource
type PageType string

const (
	PageList   PageType = "list"
	PageCreate PageType = "create"
	PageEdit   PageType = "edit"
	PageView   PageType = "view"
)

// AllPageTypes returns every page type in navigation order
func AllPageTypes() []PageType {
	return []PageType{PageList, PageCreate, PageEdit, PageView}
}

// IsValid reports whether the page type is known
func (p PageType) IsValid() bool {
	return slices.Contains(AllPageTypes(), p)
}

// IsForm reports whether the page submits a form (Create or Edit)
func (p PageType) IsForm() bool {
	return p == PageCreate || p == PageEdit
}

// String returns the string representation of the page type
func (p PageType) String() string {
	return string(p)
}

// pageForAction returns the page an action navigates to, if it is a navigation action
func pageForAction(a ActionKind) (PageType, bool) {
	switch a {
	case ActionCreate:
		return PageCreate, true
	case ActionEdit:
		return PageEdit, true
	case ActionView:
		return PageView, true
	}
	return "", false
}
