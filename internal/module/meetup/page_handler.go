package meetup

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/meethalfway/meethalfway/internal/domain"
	"github.com/meethalfway/meethalfway/internal/middleware"
	"github.com/meethalfway/meethalfway/internal/pkg"
)

// PageHandler serves the merged-map dashboard.
type PageHandler struct {
	svc domain.MeetupService
}

// NewPageHandler creates a new PageHandler with the given service.
func NewPageHandler(svc domain.MeetupService) *PageHandler {
	return &PageHandler{svc: svc}
}

// Dashboard renders the user's location, the people they picked with the
// "with" query parameter, and the halfway point between them.
// GET /dashboard
func (h *PageHandler) Dashboard(c *gin.Context) {
	with := ParseEmails(c.QueryArray("with"))
	h.render(c, http.StatusOK, with, "")
}

// SaveLocation handles the location form on the dashboard and redirects back
// to it, keeping the selected people.
// POST /dashboard
func (h *PageHandler) SaveLocation(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.Redirect(http.StatusSeeOther, middleware.LoginPath)
		return
	}
	with := ParseEmails([]string{c.PostForm("with")})

	var req SaveLocationRequest
	if err := c.ShouldBind(&req); err != nil {
		slog.DebugContext(c.Request.Context(), "location form: bind error", slog.Any("error", err))
		h.render(c, http.StatusBadRequest, with, "Enter a latitude between -90 and 90 and a longitude between -180 and 180.")
		return
	}

	if _, err := h.svc.SaveLocation(c.Request.Context(), userID, req.Label, *req.Latitude, *req.Longitude); err != nil {
		status, msg := pageError(err)
		if status == http.StatusInternalServerError {
			slog.ErrorContext(c.Request.Context(), "save location failed", slog.Any("error", err))
		}
		h.render(c, status, with, msg)
		return
	}

	target := "/dashboard"
	if len(with) > 0 {
		target += "?with=" + url.QueryEscape(strings.Join(with, ","))
	}
	c.Redirect(http.StatusSeeOther, target)
}

func (h *PageHandler) render(c *gin.Context, status int, with []string, formError string) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.Redirect(http.StatusFound, middleware.LoginPath)
		return
	}
	ctx := c.Request.Context()

	data := gin.H{
		"With":      strings.Join(with, ", "),
		"FormError": formError,
	}

	loc, err := h.svc.GetLocation(ctx, userID)
	switch {
	case err == nil:
		data["Location"] = loc
	case !domain.IsNotFound(err):
		slog.ErrorContext(ctx, "load location failed", slog.Any("error", err))
		pkg.RenderErrorPage(c, http.StatusInternalServerError)
		return
	}

	m, err := h.svc.MergedMap(ctx, userID, with)
	if err != nil {
		mapStatus, msg := pageError(err)
		if mapStatus == http.StatusInternalServerError {
			slog.ErrorContext(ctx, "merged map failed", slog.Any("error", err))
			pkg.RenderErrorPage(c, mapStatus)
			return
		}
		if status == http.StatusOK {
			status = mapStatus
		}
		data["MapError"] = msg
		m = &domain.MergedMap{Markers: []domain.Marker{}, Missing: []string{}}
	}
	data["Map"] = m

	pkg.RenderPage(c, status, data)
}

// pageError maps err to a status and a message safe to show on the page.
func pageError(err error) (int, string) {
	if domain.IsValidation(err) {
		return http.StatusBadRequest, pkg.FormMessage(err)
	}
	if domain.IsNotFound(err) {
		return http.StatusNotFound, "Your account could not be found."
	}
	return http.StatusInternalServerError, "Something went wrong. Please try again later."
}
