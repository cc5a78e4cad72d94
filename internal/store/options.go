package store

import "github.com/crewforge/content-orchestrator/internal/store/model"

const DefaultListLimit = 10

type JobQueryFilter struct {
	Status *model.JobStatus
	Limit  int
}

func NewJobQueryFilter() *JobQueryFilter {
	return &JobQueryFilter{Limit: DefaultListLimit}
}

func (qf *JobQueryFilter) ByStatus(status model.JobStatus) *JobQueryFilter {
	qf.Status = &status
	return qf
}

func (qf *JobQueryFilter) WithLimit(limit int) *JobQueryFilter {
	if limit > 0 {
		qf.Limit = limit
	}
	return qf
}

func (qf *JobQueryFilter) matches(job *model.Job) bool {
	return qf.Status == nil || job.Status == *qf.Status
}
