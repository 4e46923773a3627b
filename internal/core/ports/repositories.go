package ports

import (
	"context"

	"github.com/samirrijal/locallens/internal/core/domain"
)

// POIRepository persists points of interest.
type POIRepository interface {
	Create(ctx context.Context, poi *domain.PointOfInterest) error
	// List returns every POI ordered by ID.
	List(ctx context.Context) ([]domain.PointOfInterest, error)
	// FindWithin returns POIs whose great-circle distance to center is at most radiusMeters.
	FindWithin(ctx context.Context, center domain.Coordinate, radiusMeters float64) ([]domain.PointOfInterest, error)
}
