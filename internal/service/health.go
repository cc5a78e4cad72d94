package service

import (
	"context"

	"github.com/crewforge/content-orchestrator/internal/store/model"
)

type HealthStatus struct {
	Status     string
	ActiveJobs int
	TotalJobs  int
	Units      int
}

// Health reports store-level liveness for the health endpoint.
func (s *JobService) Health(ctx context.Context) (HealthStatus, error) {
	stats, err := s.store.Job().Stats(ctx)
	if err != nil {
		return HealthStatus{Status: "unhealthy"}, err
	}

	return HealthStatus{
		Status:     "healthy",
		ActiveJobs: stats.ByStatus[model.JobStatusProcessing],
		TotalJobs:  stats.Total,
		Units:      s.registry.Len(),
	}, nil
}
