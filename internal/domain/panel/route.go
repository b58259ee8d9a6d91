package panel

import "strings"

// PathPrefix is the URL prefix every panel route lives under
const PathPrefix = "/admin"

// Route identifies a destination both by name and by URL path
type Route struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// IndexRoute returns the list ("index") route of a resource
func IndexRoute(slug string) Route {
	return Route{
		Name: "admin.resources." + slug + ".index",
		Path: PathPrefix + "/" + slug,
	}
}

// CreateRoute returns the create page route of a resource
func CreateRoute(slug string) Route {
	return Route{
		Name: "admin.resources." + slug + ".create",
		Path: PathPrefix + "/" + slug + "/create",
	}
}

// EditRoute returns the edit page route of a record
func EditRoute(slug, id string) Route {
	return Route{
		Name: "admin.resources." + slug + ".edit",
		Path: PathPrefix + "/" + slug + "/" + id + "/edit",
	}
}

// ViewRoute returns the view page route of a record
func ViewRoute(slug, id string) Route {
	return Route{
		Name: "admin.resources." + slug + ".view",
		Path: PathPrefix + "/" + slug + "/" + id,
	}
}

// IsZero reports whether the route is unset
func (r Route) IsZero() bool {
	return r.Name == "" && r.Path == ""
}

// validSlug reports whether s is a lowercase kebab-case URL segment
func validSlug(s string) bool {
	if s == "" || strings.HasPrefix(s, "-") || strings.HasSuffix(s, "-") {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
			return false
		}
	}
	return true
}
