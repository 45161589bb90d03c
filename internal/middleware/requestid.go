package middleware

import (
	"crypto/rand"
	"log/slog"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/logger"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

const requestIDContextKey = "request_id"

var upstreamIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]{1,64}$`)

// RequestID gives every request an id. The id is echoed in X-Request-ID,
// attached to log records through the request context and shown on error
// pages. An incoming X-Request-ID is kept only when trustUpstream is set,
// which the app does when it runs behind configured proxies.
func RequestID(trustUpstream bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if !trustUpstream || !upstreamIDPattern.MatchString(id) {
			id = rand.Text()
		}

		c.Set(requestIDContextKey, id)
		c.Header(RequestIDHeader, id)
		ctx := logger.WithContextAttrs(c.Request.Context(), slog.String("request_id", id))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetRequestID returns the id set by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDContextKey)
}
