package dto

// CreateJobRequest is the body of POST /jobs.
type CreateJobRequest struct {
	RiskProfile string `json:"risk_profile" binding:"required"`
	ContentType string `json:"content_type"`
	Filename    string `json:"filename" binding:"required"`
}

// CreateJobResponse carries the fresh job id and its single-use upload
// target.
type CreateJobResponse struct {
	JobID     string `json:"job_id"`
	UploadURL string `json:"upload_url"`
}

// JobStatusResponse is the body of GET /jobs/:job_id.
type JobStatusResponse struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	ResultURL string `json:"result_url,omitempty"`
	Error     string `json:"error,omitempty"`
}

// StartJobResponse is the 202 body of POST /jobs/:job_id/start.
type StartJobResponse struct {
	Message string `json:"message"`
	JobID   string `json:"job_id"`
}
