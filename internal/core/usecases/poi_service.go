package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/locallens/internal/core/domain"
	"github.com/samirrijal/locallens/internal/core/ports"
	"github.com/samirrijal/locallens/internal/pkg/metrics"
	"github.com/samirrijal/locallens/internal/pkg/telemetry"
)

const (
	poiListCacheKey   = "pois:all"
	searchCachePrefix = "search:"
)

// POIService handles point-of-interest business logic.
type POIService struct {
	pois      ports.POIRepository
	assistant ports.Assistant
	cache     ports.CacheService
	cacheTTL  int
}

// NewPOIService creates a new POIService. assistant and cache may be nil.
func NewPOIService(pois ports.POIRepository, assistant ports.Assistant, cache ports.CacheService, cacheTTL int) *POIService {
	return &POIService{pois: pois, assistant: assistant, cache: cache, cacheTTL: cacheTTL}
}

// Add validates, enriches and stores a new POI.
func (s *POIService) Add(ctx context.Context, lat, lng float64, description string) (_ *domain.PointOfInterest, err error) {
	ctx, span := telemetry.StartSpan(ctx, "poi.add",
		attribute.Float64("poi.lat", lat), attribute.Float64("poi.lng", lng))
	defer func() { telemetry.End(span, err) }()

	if err := (domain.Coordinate{Lat: lat, Lng: lng}).Validate(); err != nil {
		return nil, err
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("description must not be empty: %w", domain.ErrInvalidInput)
	}

	poi := &domain.PointOfInterest{Lat: lat, Lng: lng, Description: description}
	poi.EnhancedDescription = description
	if s.assistant != nil {
		enhanced, err := s.assistant.Enhance(ctx, *poi)
		switch {
		case err != nil:
			slog.WarnContext(ctx, "poi enhancement failed, storing user description", "error", err)
		case strings.TrimSpace(enhanced) != "":
			poi.EnhancedDescription = strings.TrimSpace(enhanced)
		}
	}

	if err := s.pois.Create(ctx, poi); err != nil {
		return nil, fmt.Errorf("store poi: %w", err)
	}
	metrics.POIsCreated.Inc()

	if s.cache != nil {
		if err := s.cache.Delete(ctx, poiListCacheKey); err != nil {
			slog.WarnContext(ctx, "poi list cache invalidation failed", "error", err)
		}
		// Cached answers may now be missing the new POI.
		if err := s.cache.DeletePrefix(ctx, searchCachePrefix); err != nil {
			slog.WarnContext(ctx, "search cache invalidation failed", "error", err)
		}
	}
	return poi, nil
}

// List returns every stored POI ordered by id.
func (s *POIService) List(ctx context.Context) ([]domain.PointOfInterest, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, poiListCacheKey); err == nil {
			var pois []domain.PointOfInterest
			if err := json.Unmarshal(data, &pois); err == nil {
				metrics.CacheHits.WithLabelValues("pois").Inc()
				return pois, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("pois").Inc()
	}

	pois, err := s.pois.List(ctx)
	if err != nil {
		return nil, err
	}
	if pois == nil {
		pois = []domain.PointOfInterest{}
	}

	if s.cache != nil {
		if data, err := json.Marshal(pois); err == nil {
			_ = s.cache.Set(ctx, poiListCacheKey, data, s.cacheTTL)
		}
	}
	return pois, nil
}

// Within returns the POIs inside the circle.
func (s *POIService) Within(ctx context.Context, lat, lng, radiusMeters float64) ([]domain.PointOfInterest, error) {
	center := domain.Coordinate{Lat: lat, Lng: lng}
	if err := center.Validate(); err != nil {
		return nil, err
	}
	if radiusMeters <= 0 {
		return nil, fmt.Errorf("radius must be positive: %w", domain.ErrInvalidInput)
	}
	return s.pois.FindWithin(ctx, center, radiusMeters)
}
