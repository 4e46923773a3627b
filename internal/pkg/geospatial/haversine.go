package geospatial

import (
	"math"

	"github.com/samirrijal/locallens/internal/core/domain"
)

const earthRadiusMeters = 6371000.0

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(a, b domain.Coordinate) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusMeters * c
}

// Within reports whether p lies at most radiusMeters from center.
func Within(center, p domain.Coordinate, radiusMeters float64) bool {
	return Haversine(center, p) <= radiusMeters
}

// BoundingBox returns a box enclosing the circle of radiusMeters around center.
// Longitude span is clamped near the poles where the cosine approaches zero.
func BoundingBox(center domain.Coordinate, radiusMeters float64) domain.Bounds {
	latDelta := radiusMeters / 111320.0
	cos := math.Cos(toRad(center.Lat))
	lngDelta := 180.0
	if cos > 1e-6 {
		lngDelta = math.Min(radiusMeters/(111320.0*cos), 180)
	}

	return domain.Bounds{
		MinLat: math.Max(center.Lat-latDelta, -90),
		MinLng: center.Lng - lngDelta,
		MaxLat: math.Min(center.Lat+latDelta, 90),
		MaxLng: center.Lng + lngDelta,
	}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
