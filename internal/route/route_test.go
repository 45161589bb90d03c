package route

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func page(name string) Page {
	return Page{Name: name, Template: name + ".html"}
}

func TestDefault_DeclaresPagesInOrder(t *testing.T) {
	tbl := Default()

	want := []struct {
		path string
		page string
	}{
		{"/", PageHome},
		{"/dashboard", PageDashboard},
		{"/login", PageLogin},
		{"/registration", PageRegistration},
	}

	routes := tbl.Routes()
	if len(routes) != len(want) {
		t.Fatalf("len(Routes()) = %d, want %d", len(routes), len(want))
	}
	for i, w := range want {
		if routes[i].Path != w.path {
			t.Errorf("routes[%d].Path = %q, want %q", i, routes[i].Path, w.path)
		}
		if routes[i].Page.Name != w.page {
			t.Errorf("routes[%d].Page.Name = %q, want %q", i, routes[i].Page.Name, w.page)
		}
		if routes[i].Page.Template == "" {
			t.Errorf("routes[%d] has no template", i)
		}
	}
}

func TestDefault_PathsAreDistinct(t *testing.T) {
	seen := make(map[string]bool)
	for _, p := range Default().Paths() {
		if seen[p] {
			t.Fatalf("duplicate path %q", p)
		}
		seen[p] = true
	}
	if len(seen) != 4 {
		t.Fatalf("expected 4 distinct paths, got %d", len(seen))
	}
}

func TestDefault_LookupEveryPath(t *testing.T) {
	tbl := Default()
	for _, r := range tbl.Routes() {
		got, ok := tbl.Lookup(r.Path)
		if !ok {
			t.Fatalf("Lookup(%q) not found", r.Path)
		}
		if got.Page != r.Page {
			t.Errorf("Lookup(%q).Page = %+v, want %+v", r.Path, got.Page, r.Page)
		}
	}
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name    string
		routes  []Route
		wantErr string
	}{
		{"empty table", nil, "route table is empty"},
		{"empty path", []Route{{Path: " ", Page: page("a")}}, "path is required"},
		{"relative path", []Route{{Path: "login", Page: page("a")}}, "must start with '/'"},
		{"param path", []Route{{Path: "/users/:id", Page: page("a")}}, "must be static"},
		{"wildcard path", []Route{{Path: "/files/*f", Page: page("a")}}, "must be static"},
		{"duplicate path", []Route{{Path: "/a", Page: page("a")}, {Path: "/a", Page: page("b")}}, "duplicate path"},
		{"duplicate after trailing slash", []Route{{Path: "/a", Page: page("a")}, {Path: "/a/", Page: page("b")}}, "duplicate path"},
		{"duplicate page name", []Route{{Path: "/a", Page: page("a")}, {Path: "/b", Page: page("a")}}, `duplicate page name "a", already mounted at /a`},
		{"missing page name", []Route{{Path: "/a", Page: Page{Template: "a.html"}}}, "page name is required"},
		{"missing template", []Route{{Path: "/a", Page: Page{Name: "a"}}}, "page template is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.routes...)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %q, want substring %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	tbl, err := New(
		Route{Path: "/", Page: page("home")},
		Route{Path: "/login", Page: page("login")},
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tests := []struct {
		path     string
		wantName string
		wantOK   bool
	}{
		{"/", "home", true},
		{"/login", "login", true},
		{"/login/", "login", true},
		{"/LOGIN", "", false},
		{"/login/extra", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := tbl.Lookup(tt.path)
			if ok != tt.wantOK {
				t.Fatalf("Lookup(%q) ok = %v, want %v", tt.path, ok, tt.wantOK)
			}
			if got.Page.Name != tt.wantName {
				t.Errorf("Lookup(%q).Page.Name = %q, want %q", tt.path, got.Page.Name, tt.wantName)
			}
		})
	}
}

func TestRoutes_ReturnsCopy(t *testing.T) {
	tbl := Default()
	routes := tbl.Routes()
	routes[0].Path = "/mutated"
	routes[0].Page.Name = "mutated"

	if got := tbl.Routes()[0]; got.Path != "/" || got.Page.Name != PageHome {
		t.Fatalf("table mutated through Routes(): %+v", got)
	}
}

func TestNew_CopiesInput(t *testing.T) {
	in := []Route{{Path: "/a", Page: page("a")}}
	tbl, err := New(in...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	in[0].Path = "/b"

	if _, ok := tbl.Lookup("/a"); !ok {
		t.Fatal("expected /a to survive mutation of the input slice")
	}
}

func TestPage(t *testing.T) {
	tbl := Default()
	r, ok := tbl.Page(PageDashboard)
	if !ok || r.Path != "/dashboard" {
		t.Fatalf("Page(dashboard) = %+v, %v", r, ok)
	}
	if _, ok := tbl.Page("missing"); ok {
		t.Fatal("expected unknown page to be absent")
	}
}

func TestWithPage_CurrentPage(t *testing.T) {
	r := gin.New()
	want := page("home")
	r.GET("/", WithPage(want), func(c *gin.Context) {
		got, ok := CurrentPage(c)
		if !ok || got != want {
			c.String(http.StatusInternalServerError, "missing page")
			return
		}
		c.String(http.StatusOK, got.Name)
	})
	r.GET("/bare", func(c *gin.Context) {
		if _, ok := CurrentPage(c); ok {
			c.String(http.StatusInternalServerError, "unexpected page")
			return
		}
		c.String(http.StatusOK, "none")
	})

	for path, body := range map[string]string{"/": "home", "/bare": "none"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK || w.Body.String() != body {
			t.Errorf("GET %s = %d %q, want 200 %q", path, w.Code, w.Body.String(), body)
		}
	}
}
