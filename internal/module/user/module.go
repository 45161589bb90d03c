package user

import "github.com/gin-gonic/gin"

// UserModule implements the app.Module interface for the user domain.
type UserModule struct {
	handler     *UserHandler
	requireAuth gin.HandlerFunc
}

// NewModule creates a new UserModule. requireAuth guards every route.
// Panics if h or requireAuth is nil.
func NewModule(h *UserHandler, requireAuth gin.HandlerFunc) *UserModule {
	if h == nil {
		panic("user.NewModule: handler must not be nil")
	}
	if requireAuth == nil {
		panic("user.NewModule: requireAuth must not be nil")
	}
	return &UserModule{handler: h, requireAuth: requireAuth}
}

// RegisterRoutes registers user API routes.
func (m *UserModule) RegisterRoutes(api *gin.RouterGroup, _ *gin.RouterGroup) {
	api.GET("/users/me", m.requireAuth, m.handler.Me)
}
