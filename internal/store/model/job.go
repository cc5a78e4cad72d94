package model

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusQueued          JobStatus = "queued"
	JobStatusProcessing      JobStatus = "processing"
	JobStatusPendingApproval JobStatus = "pending_approval"
	JobStatusCompleted       JobStatus = "completed"
	JobStatusError           JobStatus = "error"
)

// Job is a single unit of orchestrated work. The record is owned by the store;
// components always operate on copies and write back through Update.
type Job struct {
	ID          uuid.UUID
	Unit        string
	Input       map[string]any
	Status      JobStatus
	CreatedAt   time.Time
	CompletedAt *time.Time
	ErrorAt     *time.Time

	Result    map[string]any
	Error     string
	ErrorKind string

	Feedback      *string
	HumanApproved *bool
	FeedbackAt    *time.Time

	WebhookURL string

	// Snapshot of what is needed to re-invoke the unit after a revision request.
	RetryUnit  string
	RetryInput map[string]any
}

// Copy returns a copy of the job with its own top-level input/result maps.
func (j *Job) Copy() *Job {
	dup := *j
	dup.Input = CopyInput(j.Input)
	dup.Result = CopyInput(j.Result)
	dup.RetryInput = CopyInput(j.RetryInput)
	return &dup
}

// CopyInput shallow-copies a payload map. Values are shared; only the top-level
// key set is isolated, which is the only level the orchestrator mutates.
func CopyInput(input map[string]any) map[string]any {
	if input == nil {
		return nil
	}
	dup := make(map[string]any, len(input))
	for k, v := range input {
		dup[k] = v
	}
	return dup
}

// JobStats summarizes the registry for health reporting.
type JobStats struct {
	Total    int
	ByStatus map[JobStatus]int
}
