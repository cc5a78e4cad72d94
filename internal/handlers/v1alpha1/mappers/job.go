package mappers

import (
	api "github.com/crewforge/content-orchestrator/api/v1alpha1"
	"github.com/crewforge/content-orchestrator/internal/store/model"
)

func JobToApi(job model.Job) api.Job {
	return api.Job{
		ID:            job.ID.String(),
		Unit:          job.Unit,
		Input:         job.Input,
		Status:        string(job.Status),
		CreatedAt:     job.CreatedAt,
		CompletedAt:   job.CompletedAt,
		ErrorAt:       job.ErrorAt,
		Result:        job.Result,
		Error:         job.Error,
		ErrorKind:     job.ErrorKind,
		Feedback:      job.Feedback,
		HumanApproved: job.HumanApproved,
		FeedbackAt:    job.FeedbackAt,
		WebhookURL:    job.WebhookURL,
	}
}

func JobToSummary(job model.Job) api.JobSummary {
	return api.JobSummary{
		ID:          job.ID.String(),
		Unit:        job.Unit,
		Status:      string(job.Status),
		CreatedAt:   job.CreatedAt,
		CompletedAt: job.CompletedAt,
		HasResult:   job.Result != nil,
		HasError:    job.Error != "",
	}
}

func JobListToApi(jobs []model.Job, total int) api.JobList {
	summaries := make([]api.JobSummary, 0, len(jobs))
	for _, job := range jobs {
		summaries = append(summaries, JobToSummary(job))
	}
	return api.JobList{
		Jobs:      summaries,
		Count:     len(summaries),
		TotalJobs: total,
	}
}
