package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	adomain "github.com/davitran/lawlens/internal/analysis/domain"
	"github.com/davitran/lawlens/internal/worker/domain"
)

// Storage handles all database operations for the worker
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// ClaimJob attaches this worker to a started job using optimistic locking.
// The API flips the row to RUNNING when accepting the start request; the
// claim only succeeds while no other worker holds it.
func (s *Storage) ClaimJob(ctx context.Context, jobID, workerID string) (*domain.Job, error) {
	query := `
		UPDATE jobs
		SET worker_id = $1,
		    updated_at = NOW()
		WHERE job_id = $2
		  AND status = $3
		  AND worker_id IS NULL
		RETURNING job_id, risk_profile, filename, content_type
	`

	var job domain.Job
	err := s.db.QueryRowContext(ctx, query, workerID, jobID, string(adomain.StatusRunning)).Scan(
		&job.JobID,
		&job.RiskProfile,
		&job.Filename,
		&job.ContentType,
	)

	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Warn("Failed to claim job - already claimed or not running",
			slog.String("job_id", jobID),
			slog.String("worker_id", workerID),
		)
		return nil, domain.ErrJobAlreadyClaimed
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}

	job.Status = string(adomain.StatusRunning)
	job.WorkerID = workerID

	s.logger.Info("Job claimed successfully",
		slog.String("job_id", jobID),
		slog.String("worker_id", workerID),
	)

	return &job, nil
}

// ReleaseJob detaches this worker from a still-running job so a redelivery
// can claim it again.
func (s *Storage) ReleaseJob(ctx context.Context, jobID string) error {
	query := `
		UPDATE jobs
		SET worker_id = NULL,
		    updated_at = NOW()
		WHERE job_id = $1
		  AND status = $2
	`

	if _, err := s.db.ExecContext(ctx, query, jobID, string(adomain.StatusRunning)); err != nil {
		return fmt.Errorf("failed to release job: %w", err)
	}

	return nil
}

// MarkCompleted records the terminal COMPLETED state and the location of
// the result payload.
func (s *Storage) MarkCompleted(ctx context.Context, jobID, resultURL string) error {
	query := `
		UPDATE jobs
		SET status = $1,
		    result_url = $2,
		    completed_at = NOW(),
		    updated_at = NOW()
		WHERE job_id = $3
	`

	if _, err := s.db.ExecContext(ctx, query, string(adomain.StatusCompleted), resultURL, jobID); err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}

	s.logger.Info("Job status updated",
		slog.String("job_id", jobID),
		slog.String("status", string(adomain.StatusCompleted)),
	)

	return nil
}

// MarkFailed records the terminal FAILED state with a message.
func (s *Storage) MarkFailed(ctx context.Context, jobID, errorMsg string) error {
	query := `
		UPDATE jobs
		SET status = $1,
		    error_message = $2,
		    completed_at = NOW(),
		    updated_at = NOW()
		WHERE job_id = $3
	`

	if _, err := s.db.ExecContext(ctx, query, string(adomain.StatusFailed), errorMsg, jobID); err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}

	s.logger.Info("Job status updated",
		slog.String("job_id", jobID),
		slog.String("status", string(adomain.StatusFailed)),
	)

	return nil
}
