package meetup

import (
	"time"

	"github.com/meethalfway/meethalfway/internal/domain"
)

// SaveLocationRequest is the input for saving the caller's location. It is
// accepted as JSON by the API and as form fields by the dashboard.
type SaveLocationRequest struct {
	Label     string   `json:"label" form:"label"`
	Latitude  *float64 `json:"lat" form:"lat" binding:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"lng" form:"lng" binding:"required,gte=-180,lte=180"`
}

// LocationResponse is the public view of a saved location.
type LocationResponse struct {
	Label     string    `json:"label"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToLocationResponse converts a domain.Location to a LocationResponse.
func ToLocationResponse(l *domain.Location) LocationResponse {
	return LocationResponse{
		Label:     l.Label,
		Lat:       l.Latitude,
		Lng:       l.Longitude,
		UpdatedAt: l.UpdatedAt,
	}
}
