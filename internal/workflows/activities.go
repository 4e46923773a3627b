package workflows

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samirrijal/locallens/internal/core/domain"
	"github.com/samirrijal/locallens/internal/core/ports"
	"github.com/samirrijal/locallens/internal/pkg/metrics"
)

// Digester builds a digest for an area; satisfied by usecases.AreaService.
type Digester interface {
	Digest(ctx context.Context, area domain.AreaRequest) (domain.AreaDigest, error)
}

// DigestActivities holds the activity implementations for AreaDigestWorkflow.
type DigestActivities struct {
	Areas     Digester
	Publisher ports.DigestPublisher
}

// BuildDigest collects the POIs in the area and asks the assistant for a summary.
func (a *DigestActivities) BuildDigest(ctx context.Context, area domain.AreaRequest) (domain.AreaDigest, error) {
	digest, err := a.Areas.Digest(ctx, area)
	if err != nil {
		return domain.AreaDigest{}, fmt.Errorf("digest area %s: %w", area.ID, err)
	}
	return digest, nil
}

// PublishDigest broadcasts the digest to live subscribers.
func (a *DigestActivities) PublishDigest(ctx context.Context, digest domain.AreaDigest) error {
	if a.Publisher == nil {
		slog.Info("digest ready (no publisher)", "area_id", digest.AreaID, "pois", digest.POICount)
		return nil
	}
	if err := a.Publisher.PublishDigest(ctx, digest); err != nil {
		return fmt.Errorf("publish digest %s: %w", digest.AreaID, err)
	}
	metrics.DigestsPublished.Inc()
	return nil
}
