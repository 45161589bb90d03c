package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/meethalfway/meethalfway/internal/route"
)

// AuthModule implements the app.Module and app.PageProvider interfaces for
// the auth domain.
type AuthModule struct {
	handler     *AuthHandler
	pageHandler *PageHandler
	limit       gin.HandlerFunc
}

// NewModule creates a new AuthModule. limit, when non-nil, guards every
// credential-checking endpoint.
// Panics if h or ph is nil.
func NewModule(h *AuthHandler, ph *PageHandler, limit gin.HandlerFunc) *AuthModule {
	if h == nil {
		panic("auth.NewModule: handler must not be nil")
	}
	if ph == nil {
		panic("auth.NewModule: pageHandler must not be nil")
	}
	return &AuthModule{handler: h, pageHandler: ph, limit: limit}
}

// RegisterRoutes registers the auth API and the logout form. Logout checks no
// credentials and is not rate limited.
func (m *AuthModule) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	auth := api.Group("/auth")
	auth.POST("/login", m.chain(m.handler.Login)...)
	auth.POST("/register", m.chain(m.handler.Register)...)
	auth.POST("/logout", m.handler.Logout)

	pages.POST("/logout", m.pageHandler.Logout)
}

// Pages returns the handlers for the login and registration pages.
func (m *AuthModule) Pages() map[string]route.Handlers {
	return map[string]route.Handlers{
		route.PageLogin: {
			Get:  gin.HandlersChain{m.pageHandler.LoginPage},
			Post: m.chain(m.pageHandler.Login),
		},
		route.PageRegistration: {
			Get:  gin.HandlersChain{m.pageHandler.RegistrationPage},
			Post: m.chain(m.pageHandler.Register),
		},
	}
}

func (m *AuthModule) chain(h gin.HandlerFunc) gin.HandlersChain {
	if m.limit == nil {
		return gin.HandlersChain{h}
	}
	return gin.HandlersChain{m.limit, h}
}
