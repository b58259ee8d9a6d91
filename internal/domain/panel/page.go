package panel

// RedirectPolicy decides where a form page sends the user after its primary action
type RedirectPolicy string

const (
	// RedirectNone leaves navigation to the caller
	RedirectNone RedirectPolicy = ""
	// RedirectIndex sends the user back to the resource's list page
	RedirectIndex RedirectPolicy = "index"
)

// PageConfig is the declarative configuration of one page of a resource
type PageConfig struct {
	// Actions are the header actions in display order
	Actions []ActionKind
	// Mutate runs on the submission before persistence. Form pages only.
	Mutate Mutator
	// Redirect is applied after the page's primary action. Form pages only.
	Redirect RedirectPolicy
}

// ResourceDefinition associates a resource with its pages
type ResourceDefinition struct {
	// Name is the logical resource name (e.g. "Lease")
	Name string
	// Slug is the URL segment (e.g. "leases")
	Slug string
	// SoftDeletes enables the Restore and ForceDelete actions and makes Delete reversible
	SoftDeletes bool
	// Pages maps each registered page type to its configuration
	Pages map[PageType]PageConfig
}

// HasPage reports whether the resource registers the page type
func (d ResourceDefinition) HasPage(p PageType) bool {
	_, ok := d.Pages[p]
	return ok
}

// PageTypes returns the registered page types in navigation order
func (d ResourceDefinition) PageTypes() []PageType {
	out := make([]PageType, 0, len(d.Pages))
	for _, p := range AllPageTypes() {
		if d.HasPage(p) {
			out = append(out, p)
		}
	}
	return out
}

// LabelKey returns the translation key of the resource's display label
func (d ResourceDefinition) LabelKey() string {
	return "resources." + d.Slug + ".label"
}

// PluralLabelKey returns the translation key of the resource's plural label
func (d ResourceDefinition) PluralLabelKey() string {
	return "resources." + d.Slug + ".plural_label"
}
