package runner_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/crewforge/content-orchestrator/internal/notifier"
	"github.com/crewforge/content-orchestrator/internal/runner"
	"github.com/crewforge/content-orchestrator/internal/store"
	"github.com/crewforge/content-orchestrator/internal/store/model"
	"github.com/crewforge/content-orchestrator/internal/stream"
	"github.com/crewforge/content-orchestrator/internal/workunit"
)

func newRunner(t *testing.T, registry *workunit.Registry) (*runner.Runner, store.Store) {
	t.Helper()
	s := store.NewStore()
	r := runner.New(s, registry, notifier.New(time.Second, 1), stream.NewHub(8), 4)
	return r, s
}

func createJob(t *testing.T, s store.Store, unit, webhookURL string) uuid.UUID {
	t.Helper()
	job := model.Job{
		ID:         uuid.New(),
		Unit:       unit,
		Input:      map[string]any{"topic": "go testing"},
		Status:     model.JobStatusQueued,
		CreatedAt:  time.Now(),
		WebhookURL: webhookURL,
	}
	_, err := s.Job().Create(context.TODO(), job)
	require.NoError(t, err)
	return job.ID
}

func TestExecuteWaitCompletes(t *testing.T) {
	registry := workunit.NewRegistry()
	registry.Register("unit", func(ctx context.Context, input map[string]any) (workunit.Result, error) {
		return workunit.Result{"status": workunit.StatusSuccess, "content": "done"}, nil
	})
	r, s := newRunner(t, registry)
	id := createJob(t, s, "unit", "")

	job, err := r.ExecuteWait(context.TODO(), id)
	require.NoError(t, err)
	require.Equal(t, model.JobStatusCompleted, job.Status)
	require.NotNil(t, job.CompletedAt)
	require.Equal(t, "done", job.Result["content"])
	require.Empty(t, job.Error)
}

func TestExecuteWaitPendingApprovalSnapshotsRetryInput(t *testing.T) {
	registry := workunit.NewRegistry()
	registry.Register("unit", func(ctx context.Context, input map[string]any) (workunit.Result, error) {
		return workunit.Result{"status": workunit.StatusNeedsApproval, "content": "draft"}, nil
	})
	r, s := newRunner(t, registry)
	id := createJob(t, s, "unit", "")

	job, err := r.ExecuteWait(context.TODO(), id)
	require.NoError(t, err)
	require.Equal(t, model.JobStatusPendingApproval, job.Status)
	require.Nil(t, job.CompletedAt)
	require.Equal(t, "unit", job.RetryUnit)
	require.Equal(t, "go testing", job.RetryInput["topic"])
}

func TestExecuteWaitRecordsClassifiedError(t *testing.T) {
	registry := workunit.NewRegistry()
	registry.Register("unit", func(ctx context.Context, input map[string]any) (workunit.Result, error) {
		return nil, workunit.NewError("InvalidInput", errors.New("bad input"))
	})
	r, s := newRunner(t, registry)
	id := createJob(t, s, "unit", "")

	job, err := r.ExecuteWait(context.TODO(), id)
	require.NoError(t, err)
	require.Equal(t, model.JobStatusError, job.Status)
	require.Equal(t, "InvalidInput", job.ErrorKind)
	require.Contains(t, job.Error, "bad input")
	require.NotNil(t, job.ErrorAt)
	require.Nil(t, job.Result)
}

func TestExecuteWaitRecoversFromPanic(t *testing.T) {
	registry := workunit.NewRegistry()
	registry.Register("unit", func(ctx context.Context, input map[string]any) (workunit.Result, error) {
		panic("boom")
	})
	r, s := newRunner(t, registry)
	id := createJob(t, s, "unit", "")

	job, err := r.ExecuteWait(context.TODO(), id)
	require.NoError(t, err)
	require.Equal(t, model.JobStatusError, job.Status)
	require.Equal(t, "Panic", job.ErrorKind)
}

func TestExecuteWaitUnknownJob(t *testing.T) {
	r, _ := newRunner(t, workunit.NewRegistry())

	_, err := r.ExecuteWait(context.TODO(), uuid.New())
	require.ErrorIs(t, err, store.ErrRecordNotFound)
}

func TestCompletionNotifiesWebhook(t *testing.T) {
	received := make(chan map[string]any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(req.Body).Decode(&payload)
		received <- payload
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	registry := workunit.NewRegistry()
	registry.Register("unit", func(ctx context.Context, input map[string]any) (workunit.Result, error) {
		return workunit.Result{"status": workunit.StatusSuccess}, nil
	})
	r, s := newRunner(t, registry)
	id := createJob(t, s, "unit", srv.URL)

	_, err := r.ExecuteWait(context.TODO(), id)
	require.NoError(t, err)

	select {
	case payload := <-received:
		require.Equal(t, id.String(), payload["job_id"])
		require.Equal(t, string(model.JobStatusCompleted), payload["status"])
		require.NotEmpty(t, payload["completed_at"])
	case <-time.After(2 * time.Second):
		t.Fatal("webhook notification not delivered")
	}
}

func TestExecuteSkipsJobAlreadyInFlight(t *testing.T) {
	var invocations atomic.Int64
	release := make(chan struct{})
	registry := workunit.NewRegistry()
	registry.Register("unit", func(ctx context.Context, input map[string]any) (workunit.Result, error) {
		invocations.Add(1)
		<-release
		return workunit.Result{"status": workunit.StatusSuccess}, nil
	})
	r, s := newRunner(t, registry)
	id := createJob(t, s, "unit", "")

	r.Execute(id)
	require.Eventually(t, func() bool {
		return invocations.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)

	_, err := r.ExecuteWait(context.TODO(), id)
	require.ErrorIs(t, err, runner.ErrAlreadyRunning)
	require.Equal(t, int64(1), invocations.Load())

	close(release)
	require.Eventually(t, func() bool {
		job, err := s.Job().Get(context.TODO(), id)
		return err == nil && job.Status == model.JobStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)
}

func TestJobDeletedDuringExecutionIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	finished := make(chan struct{})
	var finishOnce sync.Once
	registry := workunit.NewRegistry()
	registry.Register("unit", func(ctx context.Context, input map[string]any) (workunit.Result, error) {
		<-release
		defer finishOnce.Do(func() { close(finished) })
		return workunit.Result{"status": workunit.StatusSuccess}, nil
	})
	r, s := newRunner(t, registry)
	id := createJob(t, s, "unit", "")

	r.Execute(id)
	require.Eventually(t, func() bool {
		job, err := s.Job().Get(context.TODO(), id)
		return err == nil && job.Status == model.JobStatusProcessing
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Job().Delete(context.TODO(), id))
	close(release)
	<-finished

	// The outcome of the orphaned execution is dropped.
	_, err := s.Job().Get(context.TODO(), id)
	require.ErrorIs(t, err, store.ErrRecordNotFound)

	// The runner stays healthy for subsequent jobs.
	next := createJob(t, s, "unit", "")
	r.Execute(next)
	require.Eventually(t, func() bool {
		job, err := s.Job().Get(context.TODO(), next)
		return err == nil && job.Status == model.JobStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)
}
