package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/meethalfway/meethalfway/internal/middleware"
	"github.com/meethalfway/meethalfway/internal/pkg"
	"github.com/meethalfway/meethalfway/internal/route"
)

// RouteDeps holds all dependencies needed to register routes.
type RouteDeps struct {
	Routes     *route.Table
	Modules    []Module
	DB         *gorm.DB
	Mode       string // "debug", "release" or "test"
	CSRFSecret string
	// WebFS must contain a static/ directory. Static routes are skipped when nil.
	WebFS fs.FS
	// Metrics is served on /metrics when non-nil.
	Metrics http.Handler
}

// RegisterRoutes registers all application routes on the given gin.Engine.
//
// Every entry of deps.Routes is mounted on the CSRF-protected page group and
// served by the module whose Pages map carries the entry's page name.
func RegisterRoutes(r *gin.Engine, deps *RouteDeps) error {
	if r == nil {
		return errors.New("router is nil")
	}
	if deps == nil {
		return errors.New("route dependencies are nil")
	}
	if deps.Routes == nil {
		return errors.New("route table is required")
	}
	if len(deps.Modules) == 0 {
		return errors.New("at least one module is required")
	}
	if strings.TrimSpace(deps.CSRFSecret) == "" {
		return errors.New("csrf secret is required")
	}

	if deps.WebFS != nil {
		if err := registerStaticRoutes(r, deps.WebFS, deps.Mode); err != nil {
			return fmt.Errorf("register static routes: %w", err)
		}
	}

	r.GET("/health", healthHandler(deps.DB))
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	// API routes, no CSRF
	api := r.Group("/api/v1")

	// Page routes, with CSRF
	pages := r.Group("/")
	pages.Use(middleware.CSRF(middleware.CSRFConfig{
		Secret: deps.CSRFSecret,
		Secure: deps.Mode == gin.ReleaseMode,
		Reject: func(c *gin.Context, status int) {
			renderError(c, status, strings.ToLower(http.StatusText(status)))
		},
	}))

	handlers := make(map[string]route.Handlers)
	for i, m := range deps.Modules {
		if m == nil {
			return fmt.Errorf("module at index %d is nil", i)
		}
		m.RegisterRoutes(api, pages)

		pp, ok := m.(PageProvider)
		if !ok {
			continue
		}
		for name, h := range pp.Pages() {
			if _, dup := handlers[name]; dup {
				return fmt.Errorf("page %q is served by more than one module", name)
			}
			if len(h.Get) == 0 {
				return fmt.Errorf("page %q has no GET handler", name)
			}
			handlers[name] = h
		}
	}

	if err := mountPages(pages, deps.Routes, handlers); err != nil {
		return err
	}

	r.NoRoute(noRouteHandler())

	return nil
}

// mountPages mounts the table in declaration order. Every table entry needs a
// handler and every handler needs a table entry.
func mountPages(pages *gin.RouterGroup, table *route.Table, handlers map[string]route.Handlers) error {
	mounted := make(map[string]bool, len(handlers))
	for _, rt := range table.Routes() {
		h, ok := handlers[rt.Page.Name]
		if !ok {
			return fmt.Errorf("route %s: no handler registered for page %q", rt.Path, rt.Page.Name)
		}
		mounted[rt.Page.Name] = true

		page := route.WithPage(rt.Page)
		pages.GET(rt.Path, append(gin.HandlersChain{page}, h.Get...)...)
		if len(h.Post) > 0 {
			pages.POST(rt.Path, append(gin.HandlersChain{page}, h.Post...)...)
		}
	}

	var orphans []string
	for name := range handlers {
		if !mounted[name] {
			orphans = append(orphans, name)
		}
	}
	if len(orphans) > 0 {
		slices.Sort(orphans)
		return fmt.Errorf("pages without a route table entry: %s", strings.Join(orphans, ", "))
	}
	return nil
}

// healthHandler returns a handler that pings the database and reports status.
func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		dbStatus := "ok"
		status := "ok"
		code := http.StatusOK

		if err := pingDB(c.Request.Context(), db); err != nil {
			dbStatus = "error"
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status": status,
			"components": gin.H{
				"database": dbStatus,
			},
		})
	}
}

func pingDB(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errors.New("database is nil")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// noRouteHandler returns a handler that renders a 404 HTML page for browser
// requests or a JSON response for API clients.
func noRouteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, pkg.Response{Code: http.StatusNotFound, Message: "not found"})
			return
		}

		renderError(c, http.StatusNotFound, "not found")
	}
}

// registerStaticRoutes serves webFS/static under /static. Release mode adds
// cache headers.
func registerStaticRoutes(r *gin.Engine, webFS fs.FS, mode string) error {
	staticFS, err := fs.Sub(webFS, "static")
	if err != nil {
		return fmt.Errorf("create sub filesystem for static assets: %w", err)
	}

	fileServer := http.StripPrefix("/static", http.FileServer(http.FS(staticFS)))
	if mode != gin.ReleaseMode {
		r.GET("/static/*filepath", gin.WrapH(fileServer))
		return nil
	}
	r.GET("/static/*filepath", cacheStaticHandler(fileServer))
	return nil
}

// cacheStaticHandler wraps a file server and sets a Cache-Control header for
// release mode static assets.
func cacheStaticHandler(fileServer http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "public, max-age=86400")
		fileServer.ServeHTTP(c.Writer, c.Request)
	}
}
