package workflows

import (
	"context"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/client"

	"github.com/samirrijal/locallens/internal/core/domain"
)

// WorkflowExecutor is the part of client.Client the starter needs.
type WorkflowExecutor interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// Starter turns area events into AreaDigestWorkflow executions.
type Starter struct {
	Client    WorkflowExecutor
	TaskQueue string
}

// WorkflowID is the deterministic workflow ID for an area, so redelivered
// events attach to the existing run instead of starting a second one.
func WorkflowID(areaID string) string {
	return "area-" + areaID
}

// StartDigest starts (or joins) the digest workflow for area.
func (s *Starter) StartDigest(ctx context.Context, area domain.AreaRequest) error {
	run, err := s.Client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        WorkflowID(area.ID),
		TaskQueue: s.TaskQueue,
	}, AreaDigestWorkflow, area)
	if err != nil {
		return fmt.Errorf("start digest workflow: %w", err)
	}
	slog.Info("digest workflow started", "area_id", area.ID, "workflow_id", run.GetID(), "run_id", run.GetRunID())
	return nil
}
