package domain

import (
	"context"
)

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Location is the place a user last saved. Each user has at most one.
type Location struct {
	Record
	UserID    uint    `gorm:"uniqueIndex;not null" json:"user_id"`
	Label     string  `gorm:"size:100" json:"label"`
	Latitude  float64 `gorm:"not null" json:"latitude"`
	Longitude float64 `gorm:"not null" json:"longitude"`
}

// Point returns the coordinate of the location.
func (l Location) Point() Point {
	return Point{Lat: l.Latitude, Lng: l.Longitude}
}

// Marker is one participant shown on the merged map.
type Marker struct {
	UserID     uint    `json:"user_id"`
	Name       string  `json:"name"`
	Label      string  `json:"label"`
	Point      Point   `json:"point"`
	DistanceKm float64 `json:"distance_km"`
	Self       bool    `json:"self"`
}

// MergedMap is every participant's location combined with the point halfway
// between them. Midpoint is nil when fewer than two markers are known or when
// the markers have no defined midpoint. Missing lists requested emails that
// have no account or no saved location.
type MergedMap struct {
	Markers  []Marker `json:"markers"`
	Midpoint *Point   `json:"midpoint"`
	Missing  []string `json:"missing"`
}

// LocationRepository defines the data access interface for saved locations.
type LocationRepository interface {
	Upsert(ctx context.Context, loc *Location) error
	GetByUserID(ctx context.Context, userID uint) (*Location, error)
	ListByUserIDs(ctx context.Context, userIDs []uint) ([]Location, error)
}

// MeetupService defines the operations behind the dashboard.
type MeetupService interface {
	SaveLocation(ctx context.Context, userID uint, label string, lat, lng float64) (*Location, error)
	GetLocation(ctx context.Context, userID uint) (*Location, error)
	MergedMap(ctx context.Context, userID uint, emails []string) (*MergedMap, error)
}
