package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// CORSConfig lists who may call the JSON API from another origin.
type CORSConfig struct {
	// AllowOrigins holds exact origins; "*" allows any.
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	AllowCredentials bool
	// MaxAge is how long browsers may cache a preflight answer.
	MaxAge time.Duration
}

// DefaultCORSConfig allows any origin to use the API methods. It is the
// debug-mode default.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders: []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
		MaxAge:       12 * time.Hour,
	}
}

// CORS answers cross-origin requests under /api/. Pages are same-origin
// forms protected by CSRF tokens and get no CORS headers. It must be
// installed on the engine rather than the API group so that preflight
// requests, which match no route, still reach it.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	anyOrigin := slices.Contains(cfg.AllowOrigins, "*")
	allowed := make(map[string]bool, len(cfg.AllowOrigins))
	for _, o := range cfg.AllowOrigins {
		allowed[o] = true
	}
	methods := strings.Join(cfg.AllowMethods, ", ")
	headers := strings.Join(cfg.AllowHeaders, ", ")
	maxAge := strconv.Itoa(int(cfg.MaxAge / time.Second))

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" || !strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Add("Vary", "Origin")
		if !anyOrigin && !allowed[origin] {
			c.Next()
			return
		}

		if anyOrigin && !cfg.AllowCredentials {
			h.Set("Access-Control-Allow-Origin", "*")
		} else {
			h.Set("Access-Control-Allow-Origin", origin)
		}
		if cfg.AllowCredentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}

		if c.Request.Method != http.MethodOptions || c.GetHeader("Access-Control-Request-Method") == "" {
			h.Set("Access-Control-Expose-Headers", RequestIDHeader)
			c.Next()
			return
		}

		h.Set("Access-Control-Allow-Methods", methods)
		h.Set("Access-Control-Allow-Headers", headers)
		h.Set("Access-Control-Max-Age", maxAge)
		c.AbortWithStatus(http.StatusNoContent)
	}
}
