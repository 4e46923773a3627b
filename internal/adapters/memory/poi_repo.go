// Package memory keeps POIs in an in-process R-tree. It backs development
// runs and tests that have no database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dhconnelly/rtreego"

	"github.com/samirrijal/locallens/internal/core/domain"
	"github.com/samirrijal/locallens/internal/pkg/geospatial"
)

const (
	tolerance   = 1e-9
	minChildren = 25
	maxChildren = 50
	dimensions  = 2
)

// entry wraps a POI for R-tree indexing; dimension 0 is latitude, 1 is longitude.
type entry struct {
	poi  domain.PointOfInterest
	rect *rtreego.Rect
}

func (e *entry) Bounds() *rtreego.Rect {
	return e.rect
}

// POIRepo implements ports.POIRepository in memory.
type POIRepo struct {
	mu     sync.RWMutex
	tree   *rtreego.Rtree
	byID   []*entry
	nextID int64
	now    func() time.Time
}

// NewPOIRepo creates an empty repository.
func NewPOIRepo() *POIRepo {
	return &POIRepo{
		tree:   rtreego.NewTree(dimensions, minChildren, maxChildren),
		nextID: 1,
		now:    time.Now,
	}
}

// Create stores a copy of p and fills in its ID and creation time.
func (r *POIRepo) Create(_ context.Context, p *domain.PointOfInterest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p.ID = r.nextID
	p.CreatedAt = r.now().UTC()
	r.nextID++

	e := &entry{poi: *p, rect: rtreego.Point{p.Lat, p.Lng}.ToRect(tolerance)}
	r.tree.Insert(e)
	r.byID = append(r.byID, e)
	return nil
}

// List returns all POIs in insertion (ID) order.
func (r *POIRepo) List(_ context.Context) ([]domain.PointOfInterest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pois := make([]domain.PointOfInterest, 0, len(r.byID))
	for _, e := range r.byID {
		pois = append(pois, e.poi)
	}
	return pois, nil
}

// FindWithin searches the R-tree with the circle's bounding box and filters by haversine distance.
func (r *POIRepo) FindWithin(_ context.Context, center domain.Coordinate, radiusMeters float64) ([]domain.PointOfInterest, error) {
	box := geospatial.BoundingBox(center, radiusMeters)
	bounds, err := rtreego.NewRect(
		rtreego.Point{box.MinLat, box.MinLng},
		[]float64{box.MaxLat - box.MinLat + tolerance, box.MaxLng - box.MinLng + tolerance},
	)
	if err != nil {
		return nil, fmt.Errorf("invalid search area: %w", err)
	}

	r.mu.RLock()
	results := r.tree.SearchIntersect(bounds)
	r.mu.RUnlock()

	pois := make([]domain.PointOfInterest, 0, len(results))
	for _, res := range results {
		e, ok := res.(*entry)
		if !ok {
			continue
		}
		if geospatial.Within(center, e.poi.Coordinate(), radiusMeters) {
			pois = append(pois, e.poi)
		}
	}
	sort.Slice(pois, func(i, j int) bool { return pois[i].ID < pois[j].ID })
	return pois, nil
}

// Len returns the number of stored POIs.
func (r *POIRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Ping always succeeds; the index lives in process memory.
func (r *POIRepo) Ping(context.Context) error { return nil }
