package domain

import "time"

// DefaultRadiusMeters is the radius every freshly located area starts with.
const DefaultRadiusMeters = 1000

// PointOfInterest is a persisted (coordinate, description) pair.
type PointOfInterest struct {
	ID                  int64     `json:"id,omitempty"`
	Lat                 float64   `json:"lat"`
	Lng                 float64   `json:"lng"`
	Description         string    `json:"description"`
	EnhancedDescription string    `json:"enhanced_description,omitempty"`
	CreatedAt           time.Time `json:"created_at,omitempty"`
}

// Coordinate returns the POI position.
func (p PointOfInterest) Coordinate() Coordinate {
	return Coordinate{Lat: p.Lat, Lng: p.Lng}
}

// AreaSnapshot is an immutable copy of the area of interest at one instant.
type AreaSnapshot struct {
	Center       Coordinate `json:"center"`
	RadiusMeters int        `json:"radius"`
}

// SearchQuery is one free-text search scoped to an origin and radius.
type SearchQuery struct {
	Query        string     `json:"query"`
	Origin       Coordinate `json:"origin"`
	RadiusMeters int        `json:"radius"`
}

// AreaRequest is an area of interest forwarded for downstream processing.
type AreaRequest struct {
	ID           string     `json:"id"`
	Center       Coordinate `json:"center"`
	RadiusMeters int        `json:"radius"`
	RequestedAt  time.Time  `json:"requested_at"`
}

// AreaDigest is the assistant's summary of the POIs inside a forwarded area.
type AreaDigest struct {
	AreaID       string     `json:"area_id"`
	Center       Coordinate `json:"center"`
	RadiusMeters int        `json:"radius"`
	POICount     int        `json:"poi_count"`
	Summary      string     `json:"summary"`
	CreatedAt    time.Time  `json:"created_at"`
}
