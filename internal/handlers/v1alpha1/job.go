package v1alpha1

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"go.uber.org/zap"

	api "github.com/crewforge/content-orchestrator/api/v1alpha1"
	"github.com/crewforge/content-orchestrator/internal/handlers/v1alpha1/mappers"
	"github.com/crewforge/content-orchestrator/internal/service"
	"github.com/crewforge/content-orchestrator/internal/store"
	"github.com/crewforge/content-orchestrator/internal/store/model"
)

// (POST /api/v1/jobs)
func (h *ServiceHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req api.CreateJobRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.Unit == "" {
		req.Unit = h.defaultUnit
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	job, err := h.jobSrv.CreateJob(r.Context(), service.CreateJobForm{
		Unit:       req.Unit,
		Input:      req.Input,
		WebhookURL: req.WebhookURL,
		Wait:       req.Wait,
	})
	if err != nil {
		switch err.(type) {
		case *service.ErrUnitNotFound:
			respondError(w, r, http.StatusNotFound, err.Error())
		default:
			zap.S().Named("job_handler").Errorw("failed to create job", "error", err)
			respondError(w, r, http.StatusInternalServerError, err.Error())
		}
		return
	}

	if req.Wait {
		resp := api.CreateJobResponse{
			JobID:  job.ID.String(),
			Status: string(job.Status),
		}
		if job.Status == model.JobStatusError {
			resp.Error = job.Error
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp)
			return
		}
		resp.Result = job.Result
		render.Status(r, http.StatusOK)
		render.JSON(w, r, resp)
		return
	}

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, api.CreateJobResponse{
		JobID:   job.ID.String(),
		Status:  string(job.Status),
		Message: "Job execution started in the background",
	})
}

// (GET /api/v1/jobs/{id})
func (h *ServiceHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}

	job, err := h.jobSrv.GetJob(r.Context(), id)
	if err != nil {
		switch err.(type) {
		case *service.ErrJobNotFound:
			respondError(w, r, http.StatusNotFound, err.Error())
		default:
			respondError(w, r, http.StatusInternalServerError, err.Error())
		}
		return
	}

	render.JSON(w, r, mappers.JobToApi(*job))
}

// (GET /api/v1/jobs)
func (h *ServiceHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	filter := store.NewJobQueryFilter()

	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		limit, err := strconv.Atoi(limitParam)
		if err != nil || limit <= 0 {
			respondError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid limit: %s", limitParam))
			return
		}
		filter = filter.WithLimit(limit)
	}

	if statusParam := r.URL.Query().Get("status"); statusParam != "" {
		status, ok := api.StringToJobStatus(statusParam)
		if !ok {
			respondError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid status: %s", statusParam))
			return
		}
		filter = filter.ByStatus(status)
	}

	jobs, total, err := h.jobSrv.ListJobs(r.Context(), filter)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	render.JSON(w, r, mappers.JobListToApi(jobs, total))
}

// (POST /api/v1/jobs/{id}/feedback)
func (h *ServiceHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}

	var req api.FeedbackRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	_, err := h.jobSrv.SubmitFeedback(r.Context(), id, req.Feedback, req.Approved)
	if err != nil {
		switch err.(type) {
		case *service.ErrJobNotFound:
			respondError(w, r, http.StatusNotFound, err.Error())
		case *service.ErrInvalidJobState:
			respondError(w, r, http.StatusBadRequest, err.Error())
		default:
			zap.S().Named("job_handler").Errorw("failed to submit feedback", "job_id", id, "error", err)
			respondError(w, r, http.StatusInternalServerError, err.Error())
		}
		return
	}

	message := "Feedback recorded and content generation restarted with feedback"
	if req.Approved {
		message = "Feedback recorded and job marked as completed"
	}
	render.JSON(w, r, api.FeedbackResponse{Message: message, JobID: id.String()})
}

// (DELETE /api/v1/jobs/{id})
func (h *ServiceHandler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}

	if err := h.jobSrv.DeleteJob(r.Context(), id); err != nil {
		switch err.(type) {
		case *service.ErrJobNotFound:
			respondError(w, r, http.StatusNotFound, err.Error())
		default:
			respondError(w, r, http.StatusInternalServerError, err.Error())
		}
		return
	}

	render.JSON(w, r, api.DeleteJobResponse{Message: fmt.Sprintf("Job %s deleted successfully", id)})
}

// (GET /api/v1/units)
func (h *ServiceHandler) ListUnits(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, api.UnitList{Units: h.jobSrv.Units()})
}

func (h *ServiceHandler) jobID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		respondError(w, r, http.StatusNotFound, fmt.Sprintf("job with ID %s not found", raw))
		return uuid.UUID{}, false
	}
	return id, true
}
