package model

import (
	"database/sql"
	"time"
)

// Job is the database row backing one analysis job.
type Job struct {
	JobID        string         `db:"job_id"`
	RiskProfile  string         `db:"risk_profile"`
	Filename     string         `db:"filename"`
	ContentType  string         `db:"content_type"`
	Status       string         `db:"status"`
	ResultURL    sql.NullString `db:"result_url"`
	ErrorMessage sql.NullString `db:"error_message"`
	WorkerID     sql.NullString `db:"worker_id"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}
