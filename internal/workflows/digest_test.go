package workflows

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/testsuite"

	"github.com/samirrijal/locallens/internal/core/domain"
)

type fakeDigester struct {
	digest domain.AreaDigest
	err    error
}

func (f *fakeDigester) Digest(ctx context.Context, area domain.AreaRequest) (domain.AreaDigest, error) {
	if f.err != nil {
		return domain.AreaDigest{}, f.err
	}
	d := f.digest
	d.AreaID = area.ID
	return d, nil
}

type fakeDigestPublisher struct {
	published []domain.AreaDigest
	err       error
}

func (f *fakeDigestPublisher) PublishDigest(ctx context.Context, digest domain.AreaDigest) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, digest)
	return nil
}

func TestAreaDigestWorkflow_Publishes(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()

	pub := &fakeDigestPublisher{}
	env.RegisterActivity(&DigestActivities{
		Areas:     &fakeDigester{digest: domain.AreaDigest{POICount: 3, Summary: "Three gems."}},
		Publisher: pub,
	})

	env.ExecuteWorkflow(AreaDigestWorkflow, domain.AreaRequest{ID: "a1", RadiusMeters: 1000})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var digest domain.AreaDigest
	require.NoError(t, env.GetWorkflowResult(&digest))
	assert.Equal(t, "a1", digest.AreaID)
	assert.Equal(t, 3, digest.POICount)
	require.Len(t, pub.published, 1)
	assert.Equal(t, "Three gems.", pub.published[0].Summary)
}

func TestAreaDigestWorkflow_BuildFailureSkipsPublish(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()

	pub := &fakeDigestPublisher{}
	env.RegisterActivity(&DigestActivities{
		Areas:     &fakeDigester{err: errors.New("assistant down")},
		Publisher: pub,
	})

	env.ExecuteWorkflow(AreaDigestWorkflow, domain.AreaRequest{ID: "a2", RadiusMeters: 10})

	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
	assert.Empty(t, pub.published)
}

func TestAreaDigestWorkflow_PublishFailure(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()

	env.RegisterActivity(&DigestActivities{
		Areas:     &fakeDigester{digest: domain.AreaDigest{Summary: "s"}},
		Publisher: &fakeDigestPublisher{err: errors.New("nats down")},
	})

	env.ExecuteWorkflow(AreaDigestWorkflow, domain.AreaRequest{ID: "a3", RadiusMeters: 10})

	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
}

func TestPublishDigest_NoPublisher(t *testing.T) {
	a := &DigestActivities{}
	assert.NoError(t, a.PublishDigest(context.Background(), domain.AreaDigest{AreaID: "x"}))
}

type fakeRun struct {
	client.WorkflowRun
	id string
}

func (r fakeRun) GetID() string    { return r.id }
func (r fakeRun) GetRunID() string { return "run-1" }

type fakeExecutor struct {
	opts []client.StartWorkflowOptions
}

func (f *fakeExecutor) ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error) {
	f.opts = append(f.opts, options)
	return fakeRun{id: options.ID}, nil
}

func TestStarter_UsesDeterministicWorkflowID(t *testing.T) {
	exec := &fakeExecutor{}
	s := &Starter{Client: exec, TaskQueue: "area-digest"}

	require.NoError(t, s.StartDigest(context.Background(), domain.AreaRequest{ID: "abc"}))
	require.Len(t, exec.opts, 1)
	assert.Equal(t, "area-abc", exec.opts[0].ID)
	assert.Equal(t, "area-digest", exec.opts[0].TaskQueue)
}
