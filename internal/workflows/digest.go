package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/locallens/internal/core/domain"
)

// AreaDigestWorkflow summarises the POIs inside a forwarded area and
// broadcasts the result. The digest is also the workflow result, so a failed
// broadcast can still be inspected from Temporal.
func AreaDigestWorkflow(ctx workflow.Context, area domain.AreaRequest) (domain.AreaDigest, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting area digest workflow", "areaID", area.ID, "radius", area.RadiusMeters)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	var digest domain.AreaDigest
	if err := workflow.ExecuteActivity(ctx, "BuildDigest", area).Get(ctx, &digest); err != nil {
		return domain.AreaDigest{}, err
	}

	if err := workflow.ExecuteActivity(ctx, "PublishDigest", digest).Get(ctx, nil); err != nil {
		logger.Warn("digest broadcast failed", "areaID", area.ID, "error", err)
		return digest, err
	}

	logger.Info("Area digest published", "areaID", area.ID, "pois", digest.POICount)
	return digest, nil
}
