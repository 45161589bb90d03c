package meetup

import (
	"math"

	"github.com/meethalfway/meethalfway/internal/domain"
)

// earthRadiusKm is the IUGG mean Earth radius.
const earthRadiusKm = 6371.0088

// antipodalEpsilon is the length below which the averaged unit vector is
// treated as zero.
const antipodalEpsilon = 1e-9

// Midpoint returns the geographic midpoint of points: each point is taken as a
// unit vector from the Earth's center, the vectors are averaged and the mean
// is projected back onto the surface.
//
// A single point is its own midpoint. Points that cancel out (for example two
// antipodes) have no midpoint and yield a validation error.
func Midpoint(points ...domain.Point) (domain.Point, error) {
	if len(points) == 0 {
		return domain.Point{}, domain.NewAppError(domain.CodeValidation, "at least one point is required", nil)
	}
	for _, p := range points {
		if err := validatePoint(p); err != nil {
			return domain.Point{}, err
		}
	}
	if len(points) == 1 {
		return points[0], nil
	}

	var x, y, z float64
	for _, p := range points {
		lat, lng := radians(p.Lat), radians(p.Lng)
		x += math.Cos(lat) * math.Cos(lng)
		y += math.Cos(lat) * math.Sin(lng)
		z += math.Sin(lat)
	}
	n := float64(len(points))
	x, y, z = x/n, y/n, z/n

	hyp := math.Hypot(x, y)
	if math.Hypot(hyp, z) < antipodalEpsilon {
		return domain.Point{}, domain.NewAppError(domain.CodeValidation, "points have no defined midpoint", nil)
	}

	return domain.Point{
		Lat: degrees(math.Atan2(z, hyp)),
		Lng: degrees(math.Atan2(y, x)),
	}, nil
}

// Distance returns the great-circle distance between a and b in kilometers.
func Distance(a, b domain.Point) float64 {
	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLat := lat2 - lat1
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

func validatePoint(p domain.Point) error {
	switch {
	case math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || p.Lat < -90 || p.Lat > 90:
		return domain.NewAppError(domain.CodeValidation, "latitude must be between -90 and 90", nil)
	case math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0) || p.Lng < -180 || p.Lng > 180:
		return domain.NewAppError(domain.CodeValidation, "longitude must be between -180 and 180", nil)
	}
	return nil
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }
