package v1alpha1

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	api "github.com/crewforge/content-orchestrator/api/v1alpha1"
	"github.com/crewforge/content-orchestrator/internal/service"
	"github.com/crewforge/content-orchestrator/internal/stream"
)

// ServiceHandler translates HTTP requests into job service operations.
type ServiceHandler struct {
	jobSrv      *service.JobService
	hub         *stream.Hub
	defaultUnit string
	validate    *validator.Validate
}

func NewServiceHandler(jobSrv *service.JobService, hub *stream.Hub, defaultUnit string) *ServiceHandler {
	return &ServiceHandler{
		jobSrv:      jobSrv,
		hub:         hub,
		defaultUnit: defaultUnit,
		validate:    validator.New(),
	}
}

// Routes mounts the API on the router.
func (h *ServiceHandler) Routes(router chi.Router) {
	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/jobs", h.CreateJob)
		r.Get("/jobs", h.ListJobs)
		r.Get("/jobs/{id}", h.GetJob)
		r.Post("/jobs/{id}/feedback", h.SubmitFeedback)
		r.Delete("/jobs/{id}", h.DeleteJob)
		r.Get("/units", h.ListUnits)
	})
	router.Get("/ws", h.Stream)
	router.Get("/health", h.Health)
}

func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, api.Error{Error: message})
}
