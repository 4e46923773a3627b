package usecases

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/locallens/internal/core/domain"
	"github.com/samirrijal/locallens/internal/core/ports"
	"github.com/samirrijal/locallens/internal/pkg/markup"
	"github.com/samirrijal/locallens/internal/pkg/metrics"
	"github.com/samirrijal/locallens/internal/pkg/telemetry"
)

// SearchService answers free-text queries with the POIs around an origin as context.
type SearchService struct {
	pois      ports.POIRepository
	assistant ports.Assistant
	cache     ports.CacheService
	cacheTTL  int
}

// NewSearchService creates a new SearchService. cache may be nil.
func NewSearchService(pois ports.POIRepository, assistant ports.Assistant, cache ports.CacheService, cacheTTL int) *SearchService {
	return &SearchService{pois: pois, assistant: assistant, cache: cache, cacheTTL: cacheTTL}
}

// Search returns the assistant's answer rendered as HTML.
func (s *SearchService) Search(ctx context.Context, query string, lat, lng, radiusMeters float64) (_ string, err error) {
	ctx, span := telemetry.StartSpan(ctx, "search",
		attribute.Float64("search.radius", radiusMeters))
	defer func() {
		metrics.Searches.WithLabelValues(metrics.Outcome(err)).Inc()
		telemetry.End(span, err)
	}()

	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("query must not be empty: %w", domain.ErrInvalidInput)
	}
	if radiusMeters <= 0 || math.IsNaN(radiusMeters) || math.IsInf(radiusMeters, 0) {
		return "", fmt.Errorf("radius must be positive: %w", domain.ErrInvalidInput)
	}
	origin := domain.Coordinate{Lat: lat, Lng: lng}
	if err := origin.Validate(); err != nil {
		return "", err
	}
	if s.assistant == nil {
		return "", fmt.Errorf("assistant not configured: %w", domain.ErrUnavailable)
	}

	// Full precision: nearby origins can see different POI sets.
	cacheKey := fmt.Sprintf(searchCachePrefix+"%g:%g:%g:%s", lat, lng, radiusMeters, strings.ToLower(query))
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			metrics.CacheHits.WithLabelValues("search").Inc()
			return string(data), nil
		}
		metrics.CacheMisses.WithLabelValues("search").Inc()
	}

	nearby, err := s.pois.FindWithin(ctx, origin, radiusMeters)
	if err != nil {
		return "", fmt.Errorf("find pois: %w", err)
	}
	metrics.SearchContextSize.Observe(float64(len(nearby)))

	contexts := make([]string, 0, len(nearby))
	for _, p := range nearby {
		if p.EnhancedDescription != "" {
			contexts = append(contexts, p.EnhancedDescription)
		} else {
			contexts = append(contexts, p.Description)
		}
	}

	answer, err := s.assistant.Answer(ctx, query, contexts)
	if err != nil {
		return "", fmt.Errorf("answer query: %w", err)
	}
	html := markup.Render(answer)

	if s.cache != nil {
		_ = s.cache.Set(ctx, cacheKey, []byte(html), s.cacheTTL)
	}
	return html, nil
}
