package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/davitran/lawlens/internal/server/model"
	"github.com/davitran/lawlens/shared/postgresql"
)

// ErrJobNotFound marks lookups for ids that were never created.
var ErrJobNotFound = errors.New("job not found")

// ErrNotStartable marks start requests against jobs that already left
// PENDING.
var ErrNotStartable = errors.New("job is not in a startable state")

type Storage struct {
	db *sqlx.DB
}

func NewStorage(pg *postgresql.Client) *Storage {
	return &Storage{
		db: pg.DB(),
	}
}

func (s *Storage) CreateJob(ctx context.Context, job *model.Job) error {
	query := `
		INSERT INTO jobs (
			job_id, risk_profile, filename, content_type,
			status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7
		)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		job.JobID,
		job.RiskProfile,
		job.Filename,
		job.ContentType,
		job.Status,
		job.CreatedAt,
		job.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

func (s *Storage) GetJobByID(ctx context.Context, jobID string) (*model.Job, error) {
	var job model.Job
	query := `
		SELECT
			job_id, risk_profile, filename, content_type,
			status, result_url, error_message, worker_id,
			created_at, updated_at
		FROM jobs
		WHERE job_id = $1
	`

	err := s.db.GetContext(ctx, &job, query, jobID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

// MarkRunning transitions a PENDING job to RUNNING. Returns ErrNotStartable
// when the job exists but is past PENDING, ErrJobNotFound when it does not
// exist at all.
func (s *Storage) MarkRunning(ctx context.Context, jobID string) error {
	query := `
		UPDATE jobs
		SET status = 'RUNNING', updated_at = $2
		WHERE job_id = $1 AND status = 'PENDING'
	`

	res, err := s.db.ExecContext(ctx, query, jobID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark job running: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		if _, err := s.GetJobByID(ctx, jobID); err != nil {
			return err
		}
		return ErrNotStartable
	}

	return nil
}

// MarkFailed records a terminal failure with a human-readable message.
func (s *Storage) MarkFailed(ctx context.Context, jobID, message string) error {
	query := `
		UPDATE jobs
		SET status = 'FAILED', error_message = $2, updated_at = $3
		WHERE job_id = $1
	`

	if _, err := s.db.ExecContext(ctx, query, jobID, message, time.Now()); err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}

	return nil
}
