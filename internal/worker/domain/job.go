package domain

// Job is the subset of the jobs row the worker needs to run an analysis.
type Job struct {
	JobID       string
	RiskProfile string
	Filename    string
	ContentType string
	Status      string
	WorkerID    string
}

// JobMessage represents a job message from RabbitMQ
type JobMessage struct {
	JobID       string `json:"job_id"`
	DeliveryTag uint64 `json:"-"`
}
