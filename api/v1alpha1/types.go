package v1alpha1

import "time"

// Job is the full job record returned by GET /api/v1/jobs/{id}.
type Job struct {
	ID            string         `json:"id"`
	Unit          string         `json:"unit"`
	Input         map[string]any `json:"input,omitempty"`
	Status        string         `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
	ErrorAt       *time.Time     `json:"error_at,omitempty"`
	Result        map[string]any `json:"result,omitempty"`
	Error         string         `json:"error,omitempty"`
	ErrorKind     string         `json:"error_kind,omitempty"`
	Feedback      *string        `json:"feedback,omitempty"`
	HumanApproved *bool          `json:"human_approved,omitempty"`
	FeedbackAt    *time.Time     `json:"feedback_at,omitempty"`
	WebhookURL    string         `json:"webhook_url,omitempty"`
}

// JobSummary is the trimmed listing form, without potentially large payloads.
type JobSummary struct {
	ID          string     `json:"id"`
	Unit        string     `json:"unit"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	HasResult   bool       `json:"has_result"`
	HasError    bool       `json:"has_error"`
}

type JobList struct {
	Jobs      []JobSummary `json:"jobs"`
	Count     int          `json:"count"`
	TotalJobs int          `json:"total_jobs"`
}

type CreateJobRequest struct {
	Unit       string         `json:"unit"`
	Input      map[string]any `json:"input"`
	WebhookURL string         `json:"webhook_url,omitempty" validate:"omitempty,url"`
	Wait       bool           `json:"wait,omitempty"`
}

type CreateJobResponse struct {
	JobID   string         `json:"job_id"`
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Result  map[string]any `json:"result,omitempty"`
	Error   string         `json:"error,omitempty"`
}

type FeedbackRequest struct {
	Feedback string `json:"feedback"`
	Approved bool   `json:"approved"`
}

type FeedbackResponse struct {
	Message string `json:"message"`
	JobID   string `json:"job_id"`
}

type DeleteJobResponse struct {
	Message string `json:"message"`
}

type UnitList struct {
	Units []string `json:"units"`
}

type Health struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	ActiveJobs  int       `json:"active_jobs"`
	TotalJobs   int       `json:"total_jobs"`
	Units       int       `json:"units"`
	Subscribers int       `json:"subscribers"`
}

type Error struct {
	Error string `json:"error"`
}
