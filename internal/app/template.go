package app

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin/render"
)

// TemplateRenderer is the gin HTML renderer for the page templates.
//
// Every page under templates/ is compiled on top of a shared base set built
// from templates/layouts/*.html and templates/partials/*.html, so a page can
// call {{ template "base" . }} and fill the layout's blocks. Pages are looked
// up by their path relative to templates/, which is the Template field of a
// route.Page (e.g. "meetup/dashboard.html").
//
// In debug mode the set is re-parsed on every Instance call, so edits on disk
// show up without a restart. Otherwise it is parsed once in
// NewTemplateRenderer.
type TemplateRenderer struct {
	templates map[string]*template.Template
	fs        fs.FS
	funcMap   template.FuncMap
	debug     bool
}

var _ render.HTMLRender = (*TemplateRenderer)(nil)

// NewTemplateRenderer creates a TemplateRenderer reading templates/ from fsys.
func NewTemplateRenderer(fsys fs.FS, debug bool) (*TemplateRenderer, error) {
	r := &TemplateRenderer{fs: fsys, funcMap: templateFuncMap(), debug: debug}
	if debug {
		return r, nil
	}
	templates, err := compilePages(fsys, r.funcMap)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	r.templates = templates
	return r, nil
}

// Instance implements render.HTMLRender.
func (r *TemplateRenderer) Instance(name string, data any) render.Render {
	templates := r.templates
	if r.debug {
		var err error
		if templates, err = compilePages(r.fs, r.funcMap); err != nil {
			return &HTMLInstance{Name: name, err: err}
		}
	}
	return &HTMLInstance{Template: templates[name], Name: name, Data: data}
}

// sharedDirs hold the templates every page is parsed on top of.
var sharedDirs = []string{"layouts/", "partials/"}

// compilePages parses each page under templates/ into its own set, cloned
// from the layouts and partials so pages can redefine the same blocks. Sets
// are keyed by path relative to templates/.
func compilePages(fsys fs.FS, funcs template.FuncMap) (map[string]*template.Template, error) {
	var shared, pages []string
	err := fs.WalkDir(fsys, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".html") {
			return err
		}
		rel := strings.TrimPrefix(path, "templates/")
		for _, dir := range sharedDirs {
			if strings.HasPrefix(rel, dir) {
				shared = append(shared, rel)
				return nil
			}
		}
		pages = append(pages, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover pages: %w", err)
	}

	// WalkDir is lexical, so layouts are parsed before partials.
	base := template.New("").Funcs(funcs)
	for _, name := range shared {
		if err := parseInto(base, fsys, name); err != nil {
			return nil, err
		}
	}

	sets := make(map[string]*template.Template, len(pages))
	for _, name := range pages {
		set, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone base for %s: %w", name, err)
		}
		if err := parseInto(set, fsys, name); err != nil {
			return nil, err
		}
		sets[name] = set
	}
	return sets, nil
}

func parseInto(set *template.Template, fsys fs.FS, name string) error {
	content, err := fs.ReadFile(fsys, "templates/"+name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if _, err := set.New(name).Parse(string(content)); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

func templateFuncMap() template.FuncMap {
	return template.FuncMap{
		// json embeds v in a <script> block. The result is template.JS so
		// html/template does not quote it a second time.
		"json": func(v any) template.JS {
			b, err := json.Marshal(v)
			if err != nil {
				return template.JS("null")
			}
			return template.JS(b)
		},

		"formatDate": func(t time.Time) string {
			return t.Format("2006-01-02 15:04")
		},

		// km prints a distance in kilometres, with one decimal below 100 km.
		"km": func(d float64) string {
			if d < 100 {
				return strconv.FormatFloat(d, 'f', 1, 64) + " km"
			}
			return strconv.FormatFloat(d, 'f', 0, 64) + " km"
		},

		// coord prints a latitude or longitude with five decimals (about 1 m).
		"coord": func(v float64) string {
			return strconv.FormatFloat(v, 'f', 5, 64)
		},
	}
}

// HTMLInstance is the render.Render returned by TemplateRenderer.Instance.
type HTMLInstance struct {
	Template *template.Template
	Name     string
	Data     any
	err      error // debug-mode parse failure
}

const htmlContentType = "text/html; charset=utf-8"

// Render executes the page template into w.
func (h *HTMLInstance) Render(w http.ResponseWriter) error {
	h.WriteContentType(w)
	if h.err != nil {
		return h.err
	}
	if h.Template == nil {
		return fmt.Errorf("template %q not found", h.Name)
	}
	return h.Template.ExecuteTemplate(w, h.Name, h.Data)
}

// WriteContentType sets Content-Type unless it is already set.
func (h *HTMLInstance) WriteContentType(w http.ResponseWriter) {
	header := w.Header()
	if val := header["Content-Type"]; len(val) == 0 {
		header["Content-Type"] = []string{htmlContentType}
	}
}
