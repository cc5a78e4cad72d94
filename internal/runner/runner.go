package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/crewforge/content-orchestrator/internal/notifier"
	"github.com/crewforge/content-orchestrator/internal/store"
	"github.com/crewforge/content-orchestrator/internal/store/model"
	"github.com/crewforge/content-orchestrator/internal/stream"
	"github.com/crewforge/content-orchestrator/internal/workunit"
	"github.com/crewforge/content-orchestrator/pkg/metrics"
)

// ErrAlreadyRunning reports that the job already has an execution in flight.
var ErrAlreadyRunning = errors.New("job execution already in flight")

// Runner executes work units off the request path and applies job state
// transitions. Concurrency is capped by a weighted semaphore; a per-id guard
// keeps at most one execution in flight for any job.
type Runner struct {
	store    store.Store
	registry *workunit.Registry
	notifier *notifier.Notifier
	hub      *stream.Hub
	sem      *semaphore.Weighted

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
}

func New(s store.Store, registry *workunit.Registry, n *notifier.Notifier, hub *stream.Hub, maxConcurrent int64) *Runner {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Runner{
		store:    s,
		registry: registry,
		notifier: n,
		hub:      hub,
		sem:      semaphore.NewWeighted(maxConcurrent),
		inFlight: make(map[uuid.UUID]struct{}),
	}
}

// Execute runs the job in the background. It returns immediately; the outcome
// is observable through the store, the webhook and the stream.
func (r *Runner) Execute(jobID uuid.UUID) {
	go func() {
		if err := r.sem.Acquire(context.Background(), 1); err != nil {
			return
		}
		defer r.sem.Release(1)

		_, _ = r.run(context.Background(), jobID)
	}()
}

// ExecuteWait runs the job on the calling goroutine and returns the final
// record. Used by the synchronous job-creation mode.
func (r *Runner) ExecuteWait(ctx context.Context, jobID uuid.UUID) (*model.Job, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer r.sem.Release(1)

	return r.run(ctx, jobID)
}

// run performs one execution attempt: queued/pending -> processing -> exactly
// one of completed, pending_approval or error. Unit failures are recorded on
// the job, never propagated.
func (r *Runner) run(ctx context.Context, jobID uuid.UUID) (*model.Job, error) {
	logger := zap.S().Named("runner")

	if !r.begin(jobID) {
		logger.Warnw("execution already in flight, skipping", "job_id", jobID)
		return nil, ErrAlreadyRunning
	}

	metrics.IncreaseJobsInFlightMetric()
	defer metrics.DecreaseJobsInFlightMetric()

	job, err := r.store.Job().Update(ctx, jobID, func(j *model.Job) {
		j.Status = model.JobStatusProcessing
	})
	if err != nil {
		r.end(jobID)
		logger.Warnw("job vanished before execution", "job_id", jobID, "error", err)
		return nil, err
	}
	metrics.IncreaseJobTransitionsTotalMetric(string(model.JobStatusProcessing))
	logger.Infow("starting job execution", "job_id", jobID, "unit", job.Unit)

	result, unitErr := r.invoke(ctx, job)

	// Release the per-id guard before the outcome is published: a rejection
	// that observes pending_approval starts the retry immediately.
	r.end(jobID)

	var updated *model.Job
	switch {
	case unitErr != nil:
		updated = r.recordError(ctx, job, unitErr)
	case result.NeedsApproval():
		updated = r.recordPendingApproval(ctx, job, result)
	default:
		updated = r.recordCompleted(ctx, job, result)
	}
	if updated == nil {
		return nil, store.ErrRecordNotFound
	}
	return updated, nil
}

// invoke calls the unit, converting a panic into a classified error so a
// misbehaving collaborator cannot crash the process.
func (r *Runner) invoke(ctx context.Context, job *model.Job) (result workunit.Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = workunit.NewError("Panic", fmt.Errorf("work unit panicked: %v", rec))
		}
	}()

	return r.registry.Invoke(ctx, job.Unit, job.Input)
}

func (r *Runner) recordCompleted(ctx context.Context, job *model.Job, result workunit.Result) *model.Job {
	now := time.Now()
	updated, err := r.store.Job().Update(ctx, job.ID, func(j *model.Job) {
		j.Status = model.JobStatusCompleted
		j.CompletedAt = &now
		j.Result = result
		j.Error = ""
		j.ErrorKind = ""
		j.ErrorAt = nil
	})
	if err != nil {
		r.logDanglingUpdate(job.ID, err)
		return nil
	}
	metrics.IncreaseJobTransitionsTotalMetric(string(model.JobStatusCompleted))
	zap.S().Named("runner").Infow("job completed", "job_id", job.ID)

	r.hub.Emit("System", "Completed", fmt.Sprintf("Job %s completed", job.ID))
	r.notify(updated, notifier.Payload{
		"job_id":       job.ID.String(),
		"status":       string(model.JobStatusCompleted),
		"unit":         job.Unit,
		"completed_at": now.Format(time.RFC3339),
		"result":       map[string]any(result),
		"timestamp":    now.Format(time.RFC3339),
	})
	return updated
}

func (r *Runner) recordPendingApproval(ctx context.Context, job *model.Job, result workunit.Result) *model.Job {
	updated, err := r.store.Job().Update(ctx, job.ID, func(j *model.Job) {
		j.Status = model.JobStatusPendingApproval
		j.Result = result
		j.RetryUnit = j.Unit
		j.RetryInput = model.CopyInput(j.Input)
	})
	if err != nil {
		r.logDanglingUpdate(job.ID, err)
		return nil
	}
	metrics.IncreaseJobTransitionsTotalMetric(string(model.JobStatusPendingApproval))
	zap.S().Named("runner").Infow("job waiting for human approval", "job_id", job.ID)

	r.hub.Emit("System", "PendingApproval", fmt.Sprintf("Job %s is waiting for human approval", job.ID))
	r.notify(updated, notifier.Payload{
		"job_id":    job.ID.String(),
		"status":    string(model.JobStatusPendingApproval),
		"unit":      job.Unit,
		"result":    map[string]any(result),
		"timestamp": time.Now().Format(time.RFC3339),
	})
	return updated
}

func (r *Runner) recordError(ctx context.Context, job *model.Job, unitErr error) *model.Job {
	now := time.Now()
	kind := workunit.KindOf(unitErr)
	updated, err := r.store.Job().Update(ctx, job.ID, func(j *model.Job) {
		j.Status = model.JobStatusError
		j.ErrorAt = &now
		j.Error = unitErr.Error()
		j.ErrorKind = kind
		j.Result = nil
	})
	if err != nil {
		r.logDanglingUpdate(job.ID, err)
		return nil
	}
	metrics.IncreaseJobTransitionsTotalMetric(string(model.JobStatusError))
	zap.S().Named("runner").Errorw("job failed", "job_id", job.ID, "error_kind", kind, "error", unitErr)

	r.hub.Emit("System", "Error", fmt.Sprintf("Error in job %s: %v", job.ID, unitErr))
	r.notify(updated, notifier.Payload{
		"job_id":     job.ID.String(),
		"status":     string(model.JobStatusError),
		"unit":       job.Unit,
		"error":      unitErr.Error(),
		"error_kind": kind,
		"error_at":   now.Format(time.RFC3339),
		"timestamp":  now.Format(time.RFC3339),
	})
	return updated
}

// notify dispatches the webhook off the transition path.
func (r *Runner) notify(job *model.Job, payload notifier.Payload) {
	if job.WebhookURL == "" {
		return
	}
	go r.notifier.Notify(context.Background(), job.WebhookURL, payload)
}

func (r *Runner) logDanglingUpdate(jobID uuid.UUID, err error) {
	// A job deleted while its execution was in flight. The execution result
	// has no target anymore; drop it.
	if errors.Is(err, store.ErrRecordNotFound) {
		zap.S().Named("runner").Warnw("job deleted during execution, discarding outcome", "job_id", jobID)
		return
	}
	zap.S().Named("runner").Errorw("failed to record job outcome", "job_id", jobID, "error", err)
}

func (r *Runner) begin(jobID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.inFlight[jobID]; exists {
		return false
	}
	r.inFlight[jobID] = struct{}{}
	return true
}

func (r *Runner) end(jobID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, jobID)
}
