package home

import (
	"github.com/gin-gonic/gin"

	"github.com/meethalfway/meethalfway/internal/route"
)

// HomeModule serves the landing page.
type HomeModule struct {
	pageHandler  *PageHandler
	optionalAuth gin.HandlerFunc
}

// NewModule creates a new HomeModule. optionalAuth, when non-nil, runs before
// the page so signed-in visitors are recognized.
// Panics if ph is nil.
func NewModule(ph *PageHandler, optionalAuth gin.HandlerFunc) *HomeModule {
	if ph == nil {
		panic("home.NewModule: pageHandler must not be nil")
	}
	return &HomeModule{pageHandler: ph, optionalAuth: optionalAuth}
}

// RegisterRoutes is a no-op; the landing page is mounted from the route table.
func (m *HomeModule) RegisterRoutes(_, _ *gin.RouterGroup) {}

// Pages returns the handlers for the landing page.
func (m *HomeModule) Pages() map[string]route.Handlers {
	get := gin.HandlersChain{m.pageHandler.Home}
	if m.optionalAuth != nil {
		get = gin.HandlersChain{m.optionalAuth, m.pageHandler.Home}
	}
	return map[string]route.Handlers{route.PageHome: {Get: get}}
}
