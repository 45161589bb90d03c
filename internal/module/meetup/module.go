package meetup

import (
	"github.com/gin-gonic/gin"

	"github.com/meethalfway/meethalfway/internal/route"
)

// MeetupModule implements the app.Module and app.PageProvider interfaces for
// locations and the merged-map dashboard.
type MeetupModule struct {
	handler     *MeetupHandler
	pageHandler *PageHandler
	requireAuth gin.HandlerFunc
}

// NewModule creates a new MeetupModule. requireAuth guards every route.
// Panics if any argument is nil.
func NewModule(h *MeetupHandler, ph *PageHandler, requireAuth gin.HandlerFunc) *MeetupModule {
	if h == nil {
		panic("meetup.NewModule: handler must not be nil")
	}
	if ph == nil {
		panic("meetup.NewModule: pageHandler must not be nil")
	}
	if requireAuth == nil {
		panic("meetup.NewModule: requireAuth must not be nil")
	}
	return &MeetupModule{handler: h, pageHandler: ph, requireAuth: requireAuth}
}

// RegisterRoutes registers the location and merged-map API routes.
func (m *MeetupModule) RegisterRoutes(api *gin.RouterGroup, _ *gin.RouterGroup) {
	api.GET("/locations/me", m.requireAuth, m.handler.GetMine)
	api.PUT("/locations/me", m.requireAuth, m.handler.SaveMine)
	api.GET("/meetups/map", m.requireAuth, m.handler.Map)
}

// Pages returns the handlers for the dashboard page.
func (m *MeetupModule) Pages() map[string]route.Handlers {
	return map[string]route.Handlers{
		route.PageDashboard: {
			Get:  gin.HandlersChain{m.requireAuth, m.pageHandler.Dashboard},
			Post: gin.HandlersChain{m.requireAuth, m.pageHandler.SaveLocation},
		},
	}
}
