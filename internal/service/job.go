package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crewforge/content-orchestrator/internal/notifier"
	"github.com/crewforge/content-orchestrator/internal/runner"
	"github.com/crewforge/content-orchestrator/internal/store"
	"github.com/crewforge/content-orchestrator/internal/store/model"
	"github.com/crewforge/content-orchestrator/internal/workunit"
	"github.com/crewforge/content-orchestrator/pkg/metrics"
)

// JobService owns the job lifecycle: creation, inspection, deletion and the
// human-in-the-loop feedback protocol. All state lives in the injected store.
type JobService struct {
	store    store.Store
	registry *workunit.Registry
	runner   *runner.Runner
	notifier *notifier.Notifier
}

func NewJobService(s store.Store, registry *workunit.Registry, r *runner.Runner, n *notifier.Notifier) *JobService {
	return &JobService{
		store:    s,
		registry: registry,
		runner:   r,
		notifier: n,
	}
}

type CreateJobForm struct {
	Unit       string
	Input      map[string]any
	WebhookURL string
	Wait       bool
}

// CreateJob registers a new job and starts its execution. In asynchronous
// mode the returned record is the freshly queued job; with Wait set the call
// blocks until the execution attempt finishes and returns the final record.
func (s *JobService) CreateJob(ctx context.Context, form CreateJobForm) (*model.Job, error) {
	if _, err := s.registry.Get(form.Unit); err != nil {
		return nil, NewErrUnitNotFound(form.Unit)
	}

	job := model.Job{
		ID:         uuid.New(),
		Unit:       form.Unit,
		Input:      form.Input,
		Status:     model.JobStatusQueued,
		CreatedAt:  time.Now(),
		WebhookURL: form.WebhookURL,
	}

	created, err := s.store.Job().Create(ctx, job)
	if err != nil {
		return nil, err
	}
	metrics.IncreaseJobTransitionsTotalMetric(string(model.JobStatusQueued))
	zap.S().Named("job_service").Infow("created job", "job_id", created.ID, "unit", created.Unit, "wait", form.Wait)

	if form.Wait {
		return s.runner.ExecuteWait(ctx, created.ID)
	}

	s.runner.Execute(created.ID)
	return created, nil
}

func (s *JobService) GetJob(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	job, err := s.store.Job().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(id)
		}
		return nil, err
	}
	return job, nil
}

// ListJobs returns matching jobs newest-first along with the total number of
// jobs currently in the store.
func (s *JobService) ListJobs(ctx context.Context, filter *store.JobQueryFilter) ([]model.Job, int, error) {
	jobs, err := s.store.Job().List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	stats, err := s.store.Job().Stats(ctx)
	if err != nil {
		return nil, 0, err
	}
	return jobs, stats.Total, nil
}

// DeleteJob removes the job record. An execution already in flight keeps
// running; its outcome is discarded when it tries to write back.
func (s *JobService) DeleteJob(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Job().Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return NewErrJobNotFound(id)
		}
		return err
	}
	zap.S().Named("job_service").Infow("deleted job", "job_id", id)
	return nil
}

// SubmitFeedback resolves a pending_approval job: approval completes it,
// rejection folds the feedback into the retry input and re-runs the unit
// exactly once.
func (s *JobService) SubmitFeedback(ctx context.Context, id uuid.UUID, feedback string, approved bool) (*model.Job, error) {
	var stateErr error
	now := time.Now()

	job, err := s.store.Job().Update(ctx, id, func(j *model.Job) {
		if j.Status != model.JobStatusPendingApproval {
			stateErr = NewErrInvalidJobState(j.ID, j.Status)
			return
		}

		j.Feedback = &feedback
		j.HumanApproved = &approved
		j.FeedbackAt = &now

		if approved {
			j.Status = model.JobStatusCompleted
			j.CompletedAt = &now
			return
		}

		// Revision requested: replay the snapshotted input with the feedback
		// folded in. This is the only mutation input ever receives.
		input := model.CopyInput(j.RetryInput)
		if input == nil {
			input = model.CopyInput(j.Input)
		}
		if input == nil {
			input = make(map[string]any)
		}
		input["feedback"] = feedback
		j.Input = input
		if j.RetryUnit != "" {
			j.Unit = j.RetryUnit
		}
		j.Status = model.JobStatusProcessing
	})
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(id)
		}
		return nil, err
	}
	if stateErr != nil {
		return nil, stateErr
	}

	if approved {
		metrics.IncreaseJobTransitionsTotalMetric(string(model.JobStatusCompleted))
		zap.S().Named("job_service").Infow("feedback approved, job completed", "job_id", id)

		if job.WebhookURL != "" {
			payload := notifier.Payload{
				"job_id":       id.String(),
				"status":       string(model.JobStatusCompleted),
				"feedback":     feedback,
				"approved":     true,
				"completed_at": now.Format(time.RFC3339),
				"timestamp":    now.Format(time.RFC3339),
			}
			go s.notifier.Notify(context.Background(), job.WebhookURL, payload)
		}
		return job, nil
	}

	zap.S().Named("job_service").Infow("feedback rejected, restarting job with feedback", "job_id", id)
	s.runner.Execute(id)
	return job, nil
}

// Units lists the registered work unit names.
func (s *JobService) Units() []string {
	return s.registry.Names()
}
