package service

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/crewforge/content-orchestrator/internal/store/model"
)

type ErrJobNotFound struct {
	ID uuid.UUID
}

func NewErrJobNotFound(id uuid.UUID) *ErrJobNotFound {
	return &ErrJobNotFound{ID: id}
}

func (e *ErrJobNotFound) Error() string {
	return fmt.Sprintf("job with ID %s not found", e.ID)
}

// ErrInvalidJobState is returned when feedback arrives for a job that is not
// waiting for approval.
type ErrInvalidJobState struct {
	ID     uuid.UUID
	Status model.JobStatus
}

func NewErrInvalidJobState(id uuid.UUID, status model.JobStatus) *ErrInvalidJobState {
	return &ErrInvalidJobState{ID: id, Status: status}
}

func (e *ErrInvalidJobState) Error() string {
	return fmt.Sprintf("job %s is not in a state that can accept feedback. Current status: %s", e.ID, e.Status)
}

type ErrUnitNotFound struct {
	Name string
}

func NewErrUnitNotFound(name string) *ErrUnitNotFound {
	return &ErrUnitNotFound{Name: name}
}

func (e *ErrUnitNotFound) Error() string {
	return fmt.Sprintf("unit %s not found", e.Name)
}
