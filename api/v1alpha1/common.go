package v1alpha1

import "github.com/crewforge/content-orchestrator/internal/store/model"

func StringToJobStatus(s string) (model.JobStatus, bool) {
	switch s {
	case string(model.JobStatusQueued):
		return model.JobStatusQueued, true
	case string(model.JobStatusProcessing):
		return model.JobStatusProcessing, true
	case string(model.JobStatusPendingApproval):
		return model.JobStatusPendingApproval, true
	case string(model.JobStatusCompleted):
		return model.JobStatusCompleted, true
	case string(model.JobStatusError):
		return model.JobStatusError, true
	default:
		return "", false
	}
}
