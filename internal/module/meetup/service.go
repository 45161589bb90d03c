package meetup

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/meethalfway/meethalfway/internal/domain"
)

const (
	maxLabelRunes = 100
	// MaxParticipants is the most other people one merged map may include.
	MaxParticipants = 10
)

// meetupService implements domain.MeetupService.
type meetupService struct {
	locations domain.LocationRepository
	users     domain.UserRepository
}

// NewMeetupService creates a new MeetupService.
func NewMeetupService(locations domain.LocationRepository, users domain.UserRepository) domain.MeetupService {
	return &meetupService{locations: locations, users: users}
}

// SaveLocation validates the coordinate and stores it as the user's location.
// The label is trimmed and cut to 100 characters.
func (s *meetupService) SaveLocation(ctx context.Context, userID uint, label string, lat, lng float64) (*domain.Location, error) {
	if userID == 0 {
		return nil, domain.NewAppError(domain.CodeValidation, "user id is required", nil)
	}
	if err := validatePoint(domain.Point{Lat: lat, Lng: lng}); err != nil {
		return nil, err
	}

	loc := &domain.Location{
		UserID:    userID,
		Label:     strings.TrimSpace(truncateRunes(strings.TrimSpace(label), maxLabelRunes)),
		Latitude:  lat,
		Longitude: lng,
	}
	if err := s.locations.Upsert(ctx, loc); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "location saved", slog.Uint64("user_id", uint64(userID)))
	return loc, nil
}

// GetLocation returns the location saved by userID.
func (s *meetupService) GetLocation(ctx context.Context, userID uint) (*domain.Location, error) {
	return s.locations.GetByUserID(ctx, userID)
}

// MergedMap combines the user's location with the locations of the people
// listed in emails and computes the point halfway between all of them.
func (s *meetupService) MergedMap(ctx context.Context, userID uint, emails []string) (*domain.MergedMap, error) {
	self, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	wanted := participants(emails, self.Email)
	if len(wanted) > MaxParticipants {
		return nil, domain.NewAppError(domain.CodeValidation,
			fmt.Sprintf("a map can include at most %d other people", MaxParticipants), nil)
	}

	others, err := s.users.ListByEmails(ctx, wanted)
	if err != nil {
		return nil, err
	}
	byEmail := make(map[string]domain.User, len(others))
	ids := []uint{self.ID}
	for _, u := range others {
		byEmail[u.Email] = u
		ids = append(ids, u.ID)
	}

	locs, err := s.locations.ListByUserIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byUser := make(map[uint]domain.Location, len(locs))
	for _, l := range locs {
		byUser[l.UserID] = l
	}

	m := &domain.MergedMap{Markers: []domain.Marker{}, Missing: []string{}}
	if l, ok := byUser[self.ID]; ok {
		m.Markers = append(m.Markers, newMarker(*self, l, true))
	}
	for _, email := range wanted {
		u, ok := byEmail[email]
		if !ok {
			m.Missing = append(m.Missing, email)
			continue
		}
		l, ok := byUser[u.ID]
		if !ok {
			m.Missing = append(m.Missing, email)
			continue
		}
		m.Markers = append(m.Markers, newMarker(u, l, false))
	}

	if len(m.Markers) < 2 {
		return m, nil
	}
	points := make([]domain.Point, len(m.Markers))
	for i, mk := range m.Markers {
		points[i] = mk.Point
	}
	mid, err := Midpoint(points...)
	if err != nil {
		slog.DebugContext(ctx, "no midpoint for merged map", slog.Any("error", err))
		return m, nil
	}
	m.Midpoint = &mid
	for i := range m.Markers {
		m.Markers[i].DistanceKm = Distance(m.Markers[i].Point, mid)
	}
	return m, nil
}

func newMarker(u domain.User, l domain.Location, self bool) domain.Marker {
	return domain.Marker{
		UserID: u.ID,
		Name:   u.Name,
		Label:  l.Label,
		Point:  l.Point(),
		Self:   self,
	}
}

// participants normalizes and de-duplicates emails in their original order,
// dropping blanks and the requesting user's own address.
func participants(emails []string, selfEmail string) []string {
	self := domain.NormalizeEmail(selfEmail)
	seen := make(map[string]bool, len(emails))
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		e = domain.NormalizeEmail(e)
		if e == "" || e == self || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}

// ParseEmails splits comma separated "with" values into individual addresses.
func ParseEmails(values []string) []string {
	var out []string
	for _, v := range values {
		for _, e := range strings.Split(v, ",") {
			if e = strings.TrimSpace(e); e != "" {
				out = append(out, e)
			}
		}
	}
	return out
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
