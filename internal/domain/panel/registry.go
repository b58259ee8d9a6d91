package panel

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Registry maps resources to their page configurations.
// It is built once at startup and is read-only afterwards, so it is safe for concurrent use.
type Registry struct {
	byName map[string]ResourceDefinition
	bySlug map[string]string
	order  []string
}

// NewRegistry validates the definitions and builds a registry.
// Any inconsistency is a configuration fault and is reported here rather than at request time.
func NewRegistry(defs ...ResourceDefinition) (*Registry, error) {
	r := &Registry{
		byName: make(map[string]ResourceDefinition, len(defs)),
		bySlug: make(map[string]string, len(defs)),
		order:  make([]string, 0, len(defs)),
	}

	var problems []string
	for _, def := range defs {
		if errs := validateDefinition(def); len(errs) > 0 {
			problems = append(problems, errs...)
			continue
		}
		if _, dup := r.byName[def.Name]; dup {
			problems = append(problems, fmt.Sprintf("%s: duplicate resource name", def.Name))
			continue
		}
		if other, dup := r.bySlug[def.Slug]; dup {
			problems = append(problems, fmt.Sprintf("%s: slug %q already used by %s", def.Name, def.Slug, other))
			continue
		}
		r.byName[def.Name] = copyDefinition(def)
		r.bySlug[def.Slug] = def.Name
		r.order = append(r.order, def.Name)
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid resource registry: %s", strings.Join(problems, "; "))
	}
	return r, nil
}

// MustNewRegistry is like NewRegistry but panics on an invalid table
func MustNewRegistry(defs ...ResourceDefinition) *Registry {
	r, err := NewRegistry(defs...)
	if err != nil {
		panic(err)
	}
	return r
}

func validateDefinition(def ResourceDefinition) []string {
	var errs []string
	name := def.Name
	if name == "" {
		name = "<unnamed>"
		errs = append(errs, "resource name is required")
	}
	if !validSlug(def.Slug) {
		errs = append(errs, fmt.Sprintf("%s: invalid slug %q", name, def.Slug))
	}
	if !def.HasPage(PageList) {
		errs = append(errs, fmt.Sprintf("%s: list page is required", name))
	}

	pages := make([]PageType, 0, len(def.Pages))
	for p := range def.Pages {
		pages = append(pages, p)
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i] < pages[j] })

	for _, p := range pages {
		cfg := def.Pages[p]
		if !p.IsValid() {
			errs = append(errs, fmt.Sprintf("%s: unknown page type %q", name, p))
			continue
		}
		if !p.IsForm() {
			if cfg.Mutate != nil {
				errs = append(errs, fmt.Sprintf("%s/%s: mutators are only allowed on create and edit pages", name, p))
			}
			if cfg.Redirect != RedirectNone {
				errs = append(errs, fmt.Sprintf("%s/%s: redirects are only allowed on create and edit pages", name, p))
			}
		}
		if cfg.Redirect != RedirectNone && cfg.Redirect != RedirectIndex {
			errs = append(errs, fmt.Sprintf("%s/%s: unknown redirect policy %q", name, p, cfg.Redirect))
		}

		seen := make(map[ActionKind]bool, len(cfg.Actions))
		for _, a := range cfg.Actions {
			switch {
			case !a.IsValid():
				errs = append(errs, fmt.Sprintf("%s/%s: unknown action %q", name, p, a))
				continue
			case seen[a]:
				errs = append(errs, fmt.Sprintf("%s/%s: duplicate action %q", name, p, a))
				continue
			}
			seen[a] = true
			if a.RequiresSoftDelete() && !def.SoftDeletes {
				errs = append(errs, fmt.Sprintf("%s/%s: action %q requires soft deletes", name, p, a))
			}
			if target, ok := pageForAction(a); ok && !def.HasPage(target) {
				errs = append(errs, fmt.Sprintf("%s/%s: action %q needs a %s page", name, p, a, target))
			}
		}
	}
	return errs
}

func copyDefinition(def ResourceDefinition) ResourceDefinition {
	pages := make(map[PageType]PageConfig, len(def.Pages))
	for p, cfg := range def.Pages {
		actions := make([]ActionKind, len(cfg.Actions))
		copy(actions, cfg.Actions)
		cfg.Actions = actions
		pages[p] = cfg
	}
	def.Pages = pages
	return def
}

// Resources returns the definitions in registration order
func (r *Registry) Resources() []ResourceDefinition {
	out := make([]ResourceDefinition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Resource looks a definition up by name
func (r *Registry) Resource(name string) (ResourceDefinition, bool) {
	def, ok := r.byName[name]
	return def, ok
}

// ResourceBySlug looks a definition up by URL slug
func (r *Registry) ResourceBySlug(slug string) (ResourceDefinition, bool) {
	name, ok := r.bySlug[slug]
	if !ok {
		return ResourceDefinition{}, false
	}
	return r.byName[name], true
}

// Page returns the configuration of a resource's page
func (r *Registry) Page(resource string, page PageType) (PageConfig, bool) {
	def, ok := r.byName[resource]
	if !ok {
		return PageConfig{}, false
	}
	cfg, ok := def.Pages[page]
	return cfg, ok
}

// ActionsFor returns the header actions of a page in display order.
// An unknown resource or page yields nil.
func (r *Registry) ActionsFor(resource string, page PageType) []ActionKind {
	cfg, ok := r.Page(resource, page)
	if !ok {
		return nil
	}
	out := make([]ActionKind, len(cfg.Actions))
	copy(out, cfg.Actions)
	return out
}

// MustActionsFor is like ActionsFor but panics on an unknown pairing
func (r *Registry) MustActionsFor(resource string, page PageType) []ActionKind {
	if _, ok := r.Page(resource, page); !ok {
		panic(fmt.Sprintf("panel: no %s page registered for %s", page, resource))
	}
	return r.ActionsFor(resource, page)
}

// Allows reports whether the resource supports an operation. Create and Edit
// are allowed when the matching page exists; every other action must be exposed
// as a header action on at least one page.
func (r *Registry) Allows(resource string, action ActionKind) bool {
	def, ok := r.byName[resource]
	if !ok {
		return false
	}
	switch action {
	case ActionCreate:
		if def.HasPage(PageCreate) {
			return true
		}
	case ActionEdit:
		if def.HasPage(PageEdit) {
			return true
		}
	case ActionView:
		if def.HasPage(PageView) {
			return true
		}
	}
	for _, cfg := range def.Pages {
		for _, a := range cfg.Actions {
			if a == action {
				return true
			}
		}
	}
	return false
}

// Mutate applies the page's mutator to a copy of the submission.
// Pages without a mutator return the copy unchanged.
func (r *Registry) Mutate(resource string, page PageType, fields Submission, actor uuid.UUID) Submission {
	cfg, _ := r.Page(resource, page)
	return cfg.Mutate.Apply(fields, actor)
}

// RedirectTarget returns the destination after a form page completes: the resource index
func (r *Registry) RedirectTarget(resource string) Route {
	def, ok := r.byName[resource]
	if !ok {
		return Route{}
	}
	return IndexRoute(def.Slug)
}

// RedirectFor returns the redirect a page declares, if any
func (r *Registry) RedirectFor(resource string, page PageType) (Route, bool) {
	cfg, ok := r.Page(resource, page)
	if !ok || cfg.Redirect == RedirectNone {
		return Route{}, false
	}
	return r.RedirectTarget(resource), true
}
