package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/locallens/internal/core/domain"
	"github.com/samirrijal/locallens/internal/core/ports"
	"github.com/samirrijal/locallens/internal/pkg/metrics"
	"github.com/samirrijal/locallens/internal/pkg/telemetry"
)

// AreaService forwards areas of interest and turns them into digests.
type AreaService struct {
	pois      ports.POIRepository
	assistant ports.Assistant
	publisher ports.AreaPublisher
	now       func() time.Time
}

// NewAreaService creates a new AreaService. publisher is nil when no broker is configured.
func NewAreaService(pois ports.POIRepository, assistant ports.Assistant, publisher ports.AreaPublisher) *AreaService {
	return &AreaService{pois: pois, assistant: assistant, publisher: publisher, now: time.Now}
}

// Forward validates an area and hands it to the broker.
func (s *AreaService) Forward(ctx context.Context, lat, lng float64, radiusMeters int) (_ domain.AreaRequest, err error) {
	ctx, span := telemetry.StartSpan(ctx, "area.forward", attribute.Int("area.radius", radiusMeters))
	defer func() { telemetry.End(span, err) }()

	center := domain.Coordinate{Lat: lat, Lng: lng}
	if err := center.Validate(); err != nil {
		return domain.AreaRequest{}, err
	}
	if radiusMeters <= 0 {
		return domain.AreaRequest{}, fmt.Errorf("radius must be positive: %w", domain.ErrInvalidInput)
	}
	if s.publisher == nil {
		return domain.AreaRequest{}, fmt.Errorf("no area broker configured: %w", domain.ErrUnavailable)
	}

	area := domain.AreaRequest{
		ID:           uuid.NewString(),
		Center:       center,
		RadiusMeters: radiusMeters,
		RequestedAt:  s.now().UTC(),
	}
	if err := s.publisher.PublishArea(ctx, area); err != nil {
		return domain.AreaRequest{}, fmt.Errorf("publish area: %w", err)
	}
	metrics.AreasForwarded.Inc()
	return area, nil
}

// Digest summarises the POIs inside a forwarded area.
func (s *AreaService) Digest(ctx context.Context, area domain.AreaRequest) (_ domain.AreaDigest, err error) {
	ctx, span := telemetry.StartSpan(ctx, "area.digest", attribute.String("area.id", area.ID))
	defer func() { telemetry.End(span, err) }()

	pois, err := s.pois.FindWithin(ctx, area.Center, float64(area.RadiusMeters))
	if err != nil {
		return domain.AreaDigest{}, fmt.Errorf("find pois: %w", err)
	}

	digest := domain.AreaDigest{
		AreaID:       area.ID,
		Center:       area.Center,
		RadiusMeters: area.RadiusMeters,
		POICount:     len(pois),
		CreatedAt:    s.now().UTC(),
	}
	if len(pois) == 0 {
		digest.Summary = "No points of interest have been recorded in this area yet."
		return digest, nil
	}
	if s.assistant == nil {
		return domain.AreaDigest{}, fmt.Errorf("assistant not configured: %w", domain.ErrUnavailable)
	}

	summary, err := s.assistant.Summarize(ctx, area, pois)
	if err != nil {
		return domain.AreaDigest{}, fmt.Errorf("summarize area: %w", err)
	}
	digest.Summary = summary
	return digest, nil
}
