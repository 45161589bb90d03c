package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
)

// Recovery turns a panic in a handler into a 500. The panic value and stack
// are logged, then respond writes the response unless the handler had
// already started one. A nil respond writes the JSON envelope.
func Recovery(log *slog.Logger, respond func(c *gin.Context, status int)) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	if respond == nil {
		respond = respondJSON
	}

	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			// net/http uses this panic to drop the connection on purpose.
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			log.ErrorContext(c.Request.Context(), "panic recovered",
				slog.Any("panic", rec),
				slog.String("method", c.Request.Method),
				slog.String("route", routeLabel(c)),
				slog.String("stack", string(debug.Stack())),
			)

			c.Abort()
			if c.Writer.Written() {
				return
			}
			respond(c, http.StatusInternalServerError)
		}()
		c.Next()
	}
}

func respondJSON(c *gin.Context, status int) {
	c.JSON(status, gin.H{
		"code":    status,
		"message": strings.ToLower(http.StatusText(status)),
		"data":    nil,
	})
}
