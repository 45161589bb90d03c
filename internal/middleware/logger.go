package middleware

import (
	"log/slog"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger logs one record per request after the handlers ran. The level follows
// the status: 5xx is an error, 4xx a warning, everything else info. Successful
// requests to a quiet route (by registered pattern, e.g. "/metrics") drop to
// debug so health checks and scrapes do not flood the log.
//
// Records are logged with the request context, so the request id set by
// RequestID is attached by the logger's context middleware.
func Logger(log *slog.Logger, quiet ...string) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := routeLabel(c)
		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("route", route),
			slog.Int("status", status),
			slog.Int("bytes", max(c.Writer.Size(), 0)),
			slog.Duration("latency", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		}
		if id, ok := GetUserID(c); ok {
			attrs = append(attrs, slog.Uint64("user_id", uint64(id)))
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
		}

		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		case slices.Contains(quiet, route):
			level = slog.LevelDebug
		}
		log.LogAttrs(c.Request.Context(), level, "request", attrs...)
	}
}

// routeLabel returns the registered route pattern that served c.
func routeLabel(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return "unmatched"
}
