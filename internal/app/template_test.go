package app

import (
	"errors"
	"html/template"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/meethalfway/meethalfway/internal/domain"
	"github.com/meethalfway/meethalfway/internal/route"
	"github.com/meethalfway/meethalfway/web"
)

// testFS mirrors the web/templates/ layout with a base layout, a partial and
// two pages.
func testFS() fstest.MapFS {
	return fstest.MapFS{
		"templates/layouts/base.html": &fstest.MapFile{
			Data: []byte(
				`{{ define "base" }}<!DOCTYPE html><html>` +
					`<head><title>{{ block "title" . }}Default{{ end }}</title></head>` +
					`<body>{{ template "nav" . }}{{ block "content" . }}{{ end }}</body>` +
					`</html>{{ end }}`),
		},
		"templates/partials/nav.html": &fstest.MapFile{
			Data: []byte(`{{ define "nav" }}<nav>Navigation</nav>{{ end }}`),
		},
		"templates/meetup/dashboard.html": &fstest.MapFile{
			Data: []byte(
				`{{ template "base" . }}` +
					`{{ define "title" }}Dashboard{{ end }}` +
					`{{ define "content" }}<h1>Merged map</h1>` +
					`<script type="application/json">{{ json .Map }}</script>` +
					`{{ with .Map.Midpoint }}<p>{{ coord .Lat }},{{ coord .Lng }}</p>{{ end }}` +
					`{{ range .Map.Markers }}<li>{{ .Name }} {{ km .DistanceKm }}</li>{{ end }}` +
					`{{ end }}`),
		},
		"templates/errors/404.html": &fstest.MapFile{
			Data: []byte(
				`{{ template "base" . }}` +
					`{{ define "title" }}Not Found{{ end }}` +
					`{{ define "content" }}<h1>404 Not Found</h1>{{ end }}`),
		},
	}
}

func TestTemplateFuncMap(t *testing.T) {
	fm := templateFuncMap()

	t.Run("json", func(t *testing.T) {
		fn := fm["json"].(func(any) template.JS)
		got := fn(domain.Point{Lat: 1.5, Lng: -2})
		if want := template.JS(`{"lat":1.5,"lng":-2}`); got != want {
			t.Errorf("json(point) = %q; want %q", got, want)
		}
	})

	t.Run("json_nil_returns_null", func(t *testing.T) {
		fn := fm["json"].(func(any) template.JS)
		if got := fn(nil); got != "null" {
			t.Errorf("json(nil) = %q; want %q", got, "null")
		}
	})

	t.Run("json_unmarshalable_returns_null", func(t *testing.T) {
		fn := fm["json"].(func(any) template.JS)
		if got := fn(make(chan int)); got != "null" {
			t.Errorf("json(chan) = %q; want %q", got, "null")
		}
	})

	t.Run("formatDate", func(t *testing.T) {
		fn := fm["formatDate"].(func(time.Time) string)
		d := time.Date(2024, 3, 15, 14, 30, 59, 0, time.UTC)
		if got, want := fn(d), "2024-03-15 14:30"; got != want {
			t.Errorf("formatDate() = %q; want %q", got, want)
		}
	})

	t.Run("km", func(t *testing.T) {
		fn := fm["km"].(func(float64) string)
		tests := []struct {
			in   float64
			want string
		}{
			{0, "0.0 km"},
			{12.345, "12.3 km"},
			{99.94, "99.9 km"},
			{100, "100 km"},
			{877.46, "877 km"},
		}
		for _, tt := range tests {
			if got := fn(tt.in); got != tt.want {
				t.Errorf("km(%v) = %q; want %q", tt.in, got, tt.want)
			}
		}
	})

	t.Run("coord", func(t *testing.T) {
		fn := fm["coord"].(func(float64) string)
		if got, want := fn(52.520008), "52.52001"; got != want {
			t.Errorf("coord() = %q; want %q", got, want)
		}
		if got, want := fn(-0.1), "-0.10000"; got != want {
			t.Errorf("coord() = %q; want %q", got, want)
		}
	})
}

func TestNewTemplateRenderer_Release(t *testing.T) {
	r, err := NewTemplateRenderer(testFS(), false)
	if err != nil {
		t.Fatalf("NewTemplateRenderer() error: %v", err)
	}
	if r.debug {
		t.Error("expected debug=false")
	}
	for _, name := range []string{"meetup/dashboard.html", "errors/404.html"} {
		if _, ok := r.templates[name]; !ok {
			t.Errorf("expected template %q to be loaded", name)
		}
	}
	for _, name := range []string{"layouts/base.html", "partials/nav.html"} {
		if _, ok := r.templates[name]; ok {
			t.Errorf("base template %q should not be a page", name)
		}
	}
}

func TestNewTemplateRenderer_Debug(t *testing.T) {
	r, err := NewTemplateRenderer(testFS(), true)
	if err != nil {
		t.Fatalf("NewTemplateRenderer() error: %v", err)
	}
	if r.templates != nil {
		t.Error("templates should be nil in debug mode (parsed on each request)")
	}
}

func TestNewTemplateRenderer_InvalidTemplate(t *testing.T) {
	badFS := fstest.MapFS{
		"templates/layouts/base.html": &fstest.MapFile{
			Data: []byte(`{{ define "base" }}{{ end }}`),
		},
		"templates/bad/page.html": &fstest.MapFile{
			Data: []byte(`{{ invalid_syntax `),
		},
	}
	if _, err := NewTemplateRenderer(badFS, false); err == nil {
		t.Fatal("expected error for invalid template syntax")
	}
}

func TestTemplateRenderer_Instance(t *testing.T) {
	mid := domain.Point{Lat: 50.69, Lng: 7.43}
	data := map[string]any{
		"Map": &domain.MergedMap{
			Markers: []domain.Marker{
				{Name: "Ana", Point: domain.Point{Lat: 52.52, Lng: 13.405}, DistanceKm: 430.2},
				{Name: "Ben", Point: domain.Point{Lat: 48.8566, Lng: 2.3522}, DistanceKm: 12.34},
			},
			Midpoint: &mid,
		},
	}

	for _, debug := range []bool{false, true} {
		r, err := NewTemplateRenderer(testFS(), debug)
		if err != nil {
			t.Fatalf("NewTemplateRenderer(debug=%v) error: %v", debug, err)
		}

		w := httptest.NewRecorder()
		if err := r.Instance("meetup/dashboard.html", data).Render(w); err != nil {
			t.Fatalf("Render(debug=%v) error: %v", debug, err)
		}

		body := w.Body.String()
		for _, want := range []string{
			"<!DOCTYPE html>",
			"<title>Dashboard</title>",
			"<nav>Navigation</nav>",
			`"midpoint":{"lat":50.69,"lng":7.43}`,
			"<p>50.69000,7.43000</p>",
			"<li>Ana 430 km</li>",
			"<li>Ben 12.3 km</li>",
		} {
			if !strings.Contains(body, want) {
				t.Errorf("debug=%v: body missing %q:\n%s", debug, want, body)
			}
		}
	}
}

func TestTemplateRenderer_Instance_NotFound(t *testing.T) {
	r, err := NewTemplateRenderer(testFS(), false)
	if err != nil {
		t.Fatalf("NewTemplateRenderer() error: %v", err)
	}
	if err := r.Instance("nonexistent.html", nil).Render(httptest.NewRecorder()); err == nil {
		t.Error("Render() should return error for nonexistent template")
	}
}

func TestTemplateRenderer_Instance_DebugParseError(t *testing.T) {
	fsys := testFS()
	r, err := NewTemplateRenderer(fsys, true)
	if err != nil {
		t.Fatalf("NewTemplateRenderer() error: %v", err)
	}

	// Debug mode re-reads the filesystem, so a broken edit shows up on the next render.
	fsys["templates/errors/404.html"] = &fstest.MapFile{Data: []byte(`{{ broken `)}
	if err := r.Instance("errors/404.html", nil).Render(httptest.NewRecorder()); err == nil {
		t.Fatal("Render() error = nil, want parse error")
	}
}

func TestHTMLInstance_WriteContentType(t *testing.T) {
	w := httptest.NewRecorder()
	(&HTMLInstance{}).WriteContentType(w)
	if got, want := w.Header().Get("Content-Type"), "text/html; charset=utf-8"; got != want {
		t.Errorf("Content-Type = %q; want %q", got, want)
	}

	w = httptest.NewRecorder()
	w.Header().Set("Content-Type", "application/json")
	(&HTMLInstance{}).WriteContentType(w)
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type should not be overwritten; got %q", got)
	}
}

func TestHTMLInstance_Render_StoredError(t *testing.T) {
	h := &HTMLInstance{err: errors.New("parse error")}
	err := h.Render(httptest.NewRecorder())
	if err == nil || !strings.Contains(err.Error(), "parse error") {
		t.Fatalf("Render() error = %v; want parse error", err)
	}
}

// TestEmbeddedTemplates renders every page of the route table, plus the error
// pages, from the templates compiled into the binary.
func TestEmbeddedTemplates(t *testing.T) {
	r, err := NewTemplateRenderer(web.EmbeddedFS, false)
	if err != nil {
		t.Fatalf("NewTemplateRenderer(web.EmbeddedFS) error: %v", err)
	}

	mid := domain.Point{Lat: 50.69, Lng: 7.43}
	pageData := map[string]map[string]any{
		route.PageHome: {"SignedIn": true, "UserName": "Ana"},
		route.PageDashboard: {
			"SignedIn": true,
			"With":     "ben@example.com",
			"Location": &domain.Location{Label: "Home", Latitude: 52.52, Longitude: 13.405},
			"Map": &domain.MergedMap{
				Markers:  []domain.Marker{{Name: "Ana", Self: true, Point: domain.Point{Lat: 52.52, Lng: 13.405}, DistanceKm: 430}},
				Midpoint: &mid,
				Missing:  []string{"cy@example.com"},
			},
		},
		route.PageLogin:        {"Registered": true, "Error": "Invalid email or password."},
		route.PageRegistration: {"Name": "Ana", "Email": "ana@example.com"},
	}
	wants := map[string][]string{
		route.PageHome:         {"Welcome back, Ana."},
		route.PageDashboard:    {"52.52000, 13.40500", "Halfway point: 50.69000, 7.43000", "cy@example.com", `action="/dashboard"`},
		route.PageLogin:        {"Your account is ready.", "Invalid email or password.", `action="/login"`},
		route.PageRegistration: {`value="ana@example.com"`, `action="/registration"`},
	}

	for _, rt := range route.Default().Routes() {
		t.Run(rt.Page.Name, func(t *testing.T) {
			data := pageData[rt.Page.Name]
			data["Title"] = rt.Page.Title
			data["CSRFToken"] = "tok"

			w := httptest.NewRecorder()
			if err := r.Instance(rt.Page.Template, data).Render(w); err != nil {
				t.Fatalf("Render(%s) error: %v", rt.Page.Template, err)
			}
			body := w.Body.String()
			for _, want := range wants[rt.Page.Name] {
				if !strings.Contains(body, want) {
					t.Errorf("%s missing %q", rt.Page.Template, want)
				}
			}
		})
	}

	for _, name := range []string{"errors/400.html", "errors/403.html", "errors/404.html", "errors/500.html"} {
		if err := r.Instance(name, map[string]any{}).Render(httptest.NewRecorder()); err != nil {
			t.Errorf("Render(%s) error: %v", name, err)
		}
	}
}
