package v1alpha1

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	api "github.com/crewforge/content-orchestrator/api/v1alpha1"
)

// (GET /health)
func (h *ServiceHandler) Health(w http.ResponseWriter, r *http.Request) {
	health, err := h.jobSrv.Health(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	render.JSON(w, r, api.Health{
		Status:      health.Status,
		Timestamp:   time.Now(),
		ActiveJobs:  health.ActiveJobs,
		TotalJobs:   health.TotalJobs,
		Units:       health.Units,
		Subscribers: h.hub.Count(),
	})
}
