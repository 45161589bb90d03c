package home

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/meethalfway/meethalfway/internal/domain"
	"github.com/meethalfway/meethalfway/internal/middleware"
	"github.com/meethalfway/meethalfway/internal/pkg"
)

// PageHandler serves the landing page.
type PageHandler struct {
	users domain.UserService
}

// NewPageHandler creates a new PageHandler with the given service.
func NewPageHandler(users domain.UserService) *PageHandler {
	return &PageHandler{users: users}
}

// Home renders the landing page. Signed-in visitors are greeted by name.
// GET /
func (h *PageHandler) Home(c *gin.Context) {
	data := gin.H{}
	if id, ok := middleware.GetUserID(c); ok {
		u, err := h.users.GetUser(c.Request.Context(), id)
		switch {
		case err == nil:
			data["UserName"] = u.Name
		case domain.IsNotFound(err):
			data["SignedIn"] = false
		default:
			slog.WarnContext(c.Request.Context(), "home: load user failed", slog.Any("error", err))
		}
	}
	pkg.RenderPage(c, http.StatusOK, data)
}
