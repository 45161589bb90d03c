// Package route declares the application's page table: the ordered mapping
// from URL path to the page mounted for it.
//
// The table is built once at startup and never changes afterwards. Lookups
// walk the entries in declaration order and the first exact match wins.
package route

import (
	"errors"
	"fmt"
	"strings"
)

// Page names shared between the table and the modules that serve them.
const (
	PageHome         = "home"
	PageDashboard    = "dashboard"
	PageLogin        = "login"
	PageRegistration = "registration"
)

// Page is a page-rendering unit. Template is relative to templates/,
// e.g. "auth/login.html".
type Page struct {
	Name     string
	Template string
	Title    string
}

// Route associates a path with the page mounted for it.
type Route struct {
	Path string
	Page Page
}

// Table is an ordered, immutable set of routes with unique paths and unique
// page names.
type Table struct {
	routes []Route
	index  map[string]int
}

// New builds a table from routes in the given order.
func New(routes ...Route) (*Table, error) {
	if len(routes) == 0 {
		return nil, errors.New("route table is empty")
	}

	t := &Table{
		routes: make([]Route, 0, len(routes)),
		index:  make(map[string]int, len(routes)),
	}
	names := make(map[string]string, len(routes))
	for i, r := range routes {
		path := strings.TrimSpace(r.Path)
		if path == "" {
			return nil, fmt.Errorf("route %d: path is required", i)
		}
		if !strings.HasPrefix(path, "/") {
			return nil, fmt.Errorf("route %d: path %q must start with '/'", i, path)
		}
		if strings.ContainsAny(path, ":*") {
			return nil, fmt.Errorf("route %d: path %q must be static", i, path)
		}
		path = normalize(path)
		if _, dup := t.index[path]; dup {
			return nil, fmt.Errorf("route %d: duplicate path %q", i, path)
		}
		if strings.TrimSpace(r.Page.Name) == "" {
			return nil, fmt.Errorf("route %d (%s): page name is required", i, path)
		}
		if prev, dup := names[r.Page.Name]; dup {
			return nil, fmt.Errorf("route %d (%s): duplicate page name %q, already mounted at %s", i, path, r.Page.Name, prev)
		}
		if strings.TrimSpace(r.Page.Template) == "" {
			return nil, fmt.Errorf("route %d (%s): page template is required", i, path)
		}

		r.Path = path
		names[r.Page.Name] = path
		t.index[path] = len(t.routes)
		t.routes = append(t.routes, r)
	}
	return t, nil
}

// Default returns the application's route table.
func Default() *Table {
	t, err := New(
		Route{Path: "/", Page: Page{Name: PageHome, Template: "home.html", Title: "Meet Me Half Way"}},
		Route{Path: "/dashboard", Page: Page{Name: PageDashboard, Template: "meetup/dashboard.html", Title: "Dashboard"}},
		Route{Path: "/login", Page: Page{Name: PageLogin, Template: "auth/login.html", Title: "Log in"}},
		Route{Path: "/registration", Page: Page{Name: PageRegistration, Template: "auth/registration.html", Title: "Create an account"}},
	)
	if err != nil {
		panic("route.Default: " + err.Error())
	}
	return t
}

// Routes returns a copy of the entries in declaration order.
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// Paths returns the declared paths in declaration order.
func (t *Table) Paths() []string {
	out := make([]string, len(t.routes))
	for i, r := range t.routes {
		out[i] = r.Path
	}
	return out
}

// Len returns the number of routes.
func (t *Table) Len() int {
	return len(t.routes)
}

// Lookup returns the first route whose path equals path. A single trailing
// slash is ignored, so "/login/" finds "/login".
func (t *Table) Lookup(path string) (Route, bool) {
	i, ok := t.index[normalize(path)]
	if !ok {
		return Route{}, false
	}
	return t.routes[i], true
}

// Page returns the route serving the named page.
func (t *Table) Page(name string) (Route, bool) {
	for _, r := range t.routes {
		if r.Page.Name == name {
			return r, true
		}
	}
	return Route{}, false
}

func normalize(path string) string {
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}
