package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/meethalfway/meethalfway/internal/domain"
	"github.com/meethalfway/meethalfway/internal/middleware"
	"github.com/meethalfway/meethalfway/internal/pkg"
)

var errMissingToken = domain.NewAppError(domain.CodeUnauthorized, "authentication required", nil)

// AuthHandler serves the JSON auth API. Clients send the returned token as a
// bearer header.
type AuthHandler struct {
	svc Service
}

// NewHandler creates a new AuthHandler with the given service.
func NewHandler(svc Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Login exchanges credentials for a Session.
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	session, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, session)
}

// Register creates an account. It does not sign the new user in.
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	u, err := h.svc.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Created(c, newAccountResponse(u))
}

// Logout revokes the bearer token of the request.
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	token := middleware.SessionToken(c, "")
	if token == "" {
		pkg.Error(c, errMissingToken)
		return
	}
	if err := h.svc.Logout(c.Request.Context(), token); err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, nil)
}
