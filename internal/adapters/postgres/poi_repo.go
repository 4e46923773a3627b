package postgres

import (
	"context"
	"fmt"

	"github.com/samirrijal/locallens/internal/core/domain"
	"github.com/samirrijal/locallens/internal/pkg/geospatial"
)

// POIRepo implements ports.POIRepository with pgx.
type POIRepo struct {
	db *DB
}

// NewPOIRepo creates a new POIRepo.
func NewPOIRepo(db *DB) *POIRepo {
	return &POIRepo{db: db}
}

// Create inserts a POI and fills in its ID and creation time.
func (r *POIRepo) Create(ctx context.Context, p *domain.PointOfInterest) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO pois (lat, lng, description, enhanced_description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, p.Lat, p.Lng, p.Description, p.EnhancedDescription).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert poi: %w", err)
	}
	return nil
}

// List returns all POIs ordered by id.
func (r *POIRepo) List(ctx context.Context) ([]domain.PointOfInterest, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, lat, lng, description, enhanced_description, created_at
		FROM pois
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pois []domain.PointOfInterest
	for rows.Next() {
		var p domain.PointOfInterest
		if err := rows.Scan(&p.ID, &p.Lat, &p.Lng, &p.Description, &p.EnhancedDescription, &p.CreatedAt); err != nil {
			return nil, err
		}
		pois = append(pois, p)
	}
	return pois, rows.Err()
}

// FindWithin narrows candidates with an indexed bounding-box scan, then
// applies the exact haversine distance.
func (r *POIRepo) FindWithin(ctx context.Context, center domain.Coordinate, radiusMeters float64) ([]domain.PointOfInterest, error) {
	box := geospatial.BoundingBox(center, radiusMeters)

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, lat, lng, description, enhanced_description, created_at
		FROM pois
		WHERE lat BETWEEN $1 AND $2
		  AND lng BETWEEN $3 AND $4
		ORDER BY id
	`, box.MinLat, box.MaxLat, box.MinLng, box.MaxLng)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pois []domain.PointOfInterest
	for rows.Next() {
		var p domain.PointOfInterest
		if err := rows.Scan(&p.ID, &p.Lat, &p.Lng, &p.Description, &p.EnhancedDescription, &p.CreatedAt); err != nil {
			return nil, err
		}
		if geospatial.Within(center, p.Coordinate(), radiusMeters) {
			pois = append(pois, p)
		}
	}
	return pois, rows.Err()
}
