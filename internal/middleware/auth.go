package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

const userIDContextKey = "user_id"

// LoginPath is where unauthenticated page requests are sent.
const LoginPath = "/login"

// TokenVerifier resolves a session token to the user it was issued for.
type TokenVerifier interface {
	VerifyToken(token string) (uint, error)
}

// RequireAuth returns a middleware that accepts a request only when it carries
// a valid session token in the Authorization bearer header or in the named
// cookie. Rejected API requests (paths under /api/) get a 401 JSON envelope;
// rejected page requests are redirected to the login page with a "next"
// parameter pointing back at the requested path.
func RequireAuth(v TokenVerifier, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authenticate(c, v, cookieName) {
			c.Next()
			return
		}

		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": "authentication required",
				"data":    nil,
			})
			return
		}

		target := LoginPath
		if c.Request.Method == http.MethodGet {
			target += "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
		}
		c.Redirect(http.StatusFound, target)
		c.Abort()
	}
}

// OptionalAuth records the user when a valid session token is present and
// lets every request through.
func OptionalAuth(v TokenVerifier, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticate(c, v, cookieName)
		c.Next()
	}
}

// GetUserID returns the user recorded by RequireAuth or OptionalAuth.
func GetUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(userIDContextKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

func authenticate(c *gin.Context, v TokenVerifier, cookieName string) bool {
	if v == nil {
		return false
	}
	token := SessionToken(c, cookieName)
	if token == "" {
		return false
	}

	id, err := v.VerifyToken(token)
	if err != nil || id == 0 {
		slog.DebugContext(c.Request.Context(), "session token rejected", slog.Any("error", err))
		return false
	}
	c.Set(userIDContextKey, id)
	return true
}

// SessionToken returns the token from the Authorization bearer header or, when
// that is absent and cookieName is set, from the named cookie.
func SessionToken(c *gin.Context, cookieName string) string {
	if token := bearerToken(c); token != "" {
		return token
	}
	if cookieName == "" {
		return ""
	}
	cookie, err := c.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie)
}

func bearerToken(c *gin.Context) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(c.GetHeader("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
