package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	adomain "github.com/davitran/lawlens/internal/analysis/domain"
	"github.com/davitran/lawlens/internal/artifacts"
	"github.com/davitran/lawlens/internal/worker/domain"
)

// processJob runs one analysis end to end: claim the row, read the uploaded
// document, analyze it, store the result payload and flip the job to a
// terminal state.
func (w *Worker) processJob(ctx context.Context, msg *domain.JobMessage) error {
	w.logger.Info("Processing job",
		slog.String("job_id", msg.JobID),
		slog.String("worker_id", w.workerID),
	)

	job, err := w.storage.ClaimJob(ctx, msg.JobID, w.workerID)
	if err != nil {
		if errors.Is(err, domain.ErrJobAlreadyClaimed) {
			w.logger.Warn("Job already claimed, skipping",
				slog.String("job_id", msg.JobID),
			)
			return fmt.Errorf("job already claimed: %w", err)
		}
		return domain.NewRetryableError(fmt.Errorf("failed to claim job: %w", err))
	}

	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	profile, err := adomain.ParseRiskProfile(job.RiskProfile)
	if err != nil {
		w.failJob(jobCtx, job.JobID, fmt.Sprintf("invalid risk profile: %s", job.RiskProfile))
		return fmt.Errorf("invalid risk profile %q on job %s", job.RiskProfile, job.JobID)
	}

	doc, err := w.readDocument(job.JobID, job.Filename)
	if err != nil {
		w.failJob(jobCtx, job.JobID, "source document was never uploaded")
		return fmt.Errorf("%w: %v", domain.ErrArtifactMissing, err)
	}

	result := Analyze(job.Filename, profile, doc)

	body, err := json.Marshal(result)
	if err != nil {
		w.failJob(jobCtx, job.JobID, "failed to encode result payload")
		return fmt.Errorf("failed to encode result payload: %w", err)
	}

	if err := w.artifacts.Save(job.JobID, artifacts.ResultName, bytes.NewReader(body)); err != nil {
		w.releaseJob(jobCtx, job.JobID)
		return domain.NewRetryableError(fmt.Errorf("failed to store result payload: %w", err))
	}

	resultURL := fmt.Sprintf("%s/artifacts/%s/%s",
		strings.TrimRight(w.publicBaseURL, "/"), job.JobID, artifacts.ResultName)

	if err := w.storage.MarkCompleted(jobCtx, job.JobID, resultURL); err != nil {
		w.releaseJob(jobCtx, job.JobID)
		return domain.NewRetryableError(fmt.Errorf("failed to mark job completed: %w", err))
	}

	w.logger.Info("Analysis completed",
		slog.String("job_id", job.JobID),
		slog.String("risk_profile", job.RiskProfile),
		slog.String("result_url", resultURL),
	)

	return nil
}

func (w *Worker) readDocument(jobID, filename string) ([]byte, error) {
	r, err := w.artifacts.Open(jobID, filename)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (w *Worker) failJob(ctx context.Context, jobID, message string) {
	if err := w.storage.MarkFailed(ctx, jobID, message); err != nil {
		w.logger.Error("Failed to mark job failed",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
	}
}

func (w *Worker) releaseJob(ctx context.Context, jobID string) {
	if err := w.storage.ReleaseJob(ctx, jobID); err != nil {
		w.logger.Error("Failed to release job for redelivery",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
	}
}
