package auth

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/meethalfway/meethalfway/internal/domain"
	"github.com/meethalfway/meethalfway/internal/middleware"
	"github.com/meethalfway/meethalfway/internal/pkg"
)

const (
	defaultAfterLogin = "/dashboard"
	formErrorMessage  = "Please check the highlighted fields and try again."
	serverErrorMsg    = "Something went wrong. Please try again later."
)

// SessionCookie describes the cookie that carries the session token.
type SessionCookie struct {
	Name   string
	Secure bool
}

// PageHandler serves the login and registration pages and their forms.
type PageHandler struct {
	svc    Service
	cookie SessionCookie
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(svc Service, cookie SessionCookie) *PageHandler {
	return &PageHandler{svc: svc, cookie: cookie}
}

// LoginPage renders the login form.
// GET /login
func (h *PageHandler) LoginPage(c *gin.Context) {
	pkg.RenderPage(c, http.StatusOK, gin.H{
		"Registered": c.Query("registered") == "1",
		"Next":       safeNext(c.Query("next")),
	})
}

// Login handles the login form. On success the session cookie is set and the
// browser is sent to the dashboard, or to the page it originally asked for.
// POST /login
func (h *PageHandler) Login(c *gin.Context) {
	next := safeNext(c.PostForm("next"))

	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		slog.DebugContext(c.Request.Context(), "login form: bind error", slog.Any("error", err))
		pkg.RenderPage(c, http.StatusBadRequest, gin.H{
			"Email": req.Email,
			"Next":  next,
			"Error": formErrorMessage,
		})
		return
	}

	session, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		status, msg := http.StatusInternalServerError, serverErrorMsg
		if domain.IsUnauthorized(err) {
			status, msg = http.StatusUnauthorized, "Invalid email or password."
		} else {
			slog.ErrorContext(c.Request.Context(), "login failed", slog.Any("error", err))
		}
		pkg.RenderPage(c, status, gin.H{
			"Email": req.Email,
			"Next":  next,
			"Error": msg,
		})
		return
	}

	h.setSession(c, session.Token, time.Until(session.ExpiresAt))
	if next == "" {
		next = defaultAfterLogin
	}
	c.Redirect(http.StatusSeeOther, next)
}

// RegistrationPage renders the registration form.
// GET /registration
func (h *PageHandler) RegistrationPage(c *gin.Context) {
	pkg.RenderPage(c, http.StatusOK, nil)
}

// Register handles the registration form and sends the browser to the
// login page once the account exists.
// POST /registration
func (h *PageHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		slog.DebugContext(c.Request.Context(), "registration form: bind error", slog.Any("error", err))
		pkg.RenderPage(c, http.StatusBadRequest, gin.H{
			"Name":  req.Name,
			"Email": req.Email,
			"Error": formErrorMessage,
		})
		return
	}

	if _, err := h.svc.Register(c.Request.Context(), req.Name, req.Email, req.Password); err != nil {
		status, msg := registrationError(err)
		if status == http.StatusInternalServerError {
			slog.ErrorContext(c.Request.Context(), "registration failed", slog.Any("error", err))
		}
		pkg.RenderPage(c, status, gin.H{
			"Name":  req.Name,
			"Email": req.Email,
			"Error": msg,
		})
		return
	}

	c.Redirect(http.StatusSeeOther, "/login?registered=1")
}

// Logout revokes the session token and clears the cookie. A token that
// cannot be revoked is already unusable, so the browser is signed out either
// way.
// POST /logout
func (h *PageHandler) Logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), middleware.SessionToken(c, h.cookie.Name)); err != nil {
		slog.DebugContext(c.Request.Context(), "logout: revoke failed", slog.Any("error", err))
	}
	h.setSession(c, "", -1)
	c.Redirect(http.StatusSeeOther, "/")
}

// setSession writes the session cookie. A negative ttl deletes it.
func (h *PageHandler) setSession(c *gin.Context, token string, ttl time.Duration) {
	maxAge := -1
	if ttl > 0 {
		maxAge = int(ttl.Seconds())
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, maxAge, "/", "", h.cookie.Secure, true)
}

func registrationError(err error) (int, string) {
	if domain.IsAlreadyExists(err) {
		return http.StatusConflict, "An account with this email already exists."
	}
	if domain.IsValidation(err) {
		return http.StatusBadRequest, pkg.FormMessage(err)
	}
	return http.StatusInternalServerError, serverErrorMsg
}

// safeNext returns next when it is a local absolute path and "" otherwise.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	return next
}
