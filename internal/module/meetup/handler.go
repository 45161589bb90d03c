package meetup

import (
	"github.com/gin-gonic/gin"

	"github.com/meethalfway/meethalfway/internal/domain"
	"github.com/meethalfway/meethalfway/internal/middleware"
	"github.com/meethalfway/meethalfway/internal/pkg"
)

// MeetupHandler handles REST API requests for locations and merged maps.
type MeetupHandler struct {
	svc domain.MeetupService
}

// NewMeetupHandler creates a new MeetupHandler with the given service.
func NewMeetupHandler(svc domain.MeetupService) *MeetupHandler {
	return &MeetupHandler{svc: svc}
}

// GetMine handles GET /api/v1/locations/me.
func (h *MeetupHandler) GetMine(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	loc, err := h.svc.GetLocation(c.Request.Context(), userID)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, ToLocationResponse(loc))
}

// SaveMine handles PUT /api/v1/locations/me.
func (h *MeetupHandler) SaveMine(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req SaveLocationRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	loc, err := h.svc.SaveLocation(c.Request.Context(), userID, req.Label, *req.Latitude, *req.Longitude)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, ToLocationResponse(loc))
}

// Map handles GET /api/v1/meetups/map?with=a@example.com,b@example.com.
func (h *MeetupHandler) Map(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	m, err := h.svc.MergedMap(c.Request.Context(), userID, ParseEmails(c.QueryArray("with")))
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, m)
}

func currentUser(c *gin.Context) (uint, bool) {
	id, ok := middleware.GetUserID(c)
	if !ok {
		pkg.Error(c, domain.NewAppError(domain.CodeUnauthorized, "authentication required", nil))
	}
	return id, ok
}
