package app

import (
	"github.com/gin-gonic/gin"

	"github.com/meethalfway/meethalfway/internal/route"
)

// Module defines the contract for a self-registering business module.
// Each module registers its own API and page routes.
type Module interface {
	RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup)
}

// PageProvider is implemented by modules that serve entries of the route
// table. Pages is keyed by route.Page.Name.
type PageProvider interface {
	Pages() map[string]route.Handlers
}
