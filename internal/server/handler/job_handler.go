package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/davitran/lawlens/internal/analysis"
	"github.com/davitran/lawlens/internal/analysis/domain"
	"github.com/davitran/lawlens/internal/artifacts"
	"github.com/davitran/lawlens/internal/server/dto"
	"github.com/davitran/lawlens/internal/server/model"
	"github.com/davitran/lawlens/internal/server/storage"
)

// startMessage is the queue payload telling the worker which job to run.
type startMessage struct {
	JobID string `json:"job_id"`
}

// CreateJob handles POST /jobs. It registers a PENDING job and hands back
// the upload target for the source document.
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	profile, err := domain.ParseRiskProfile(req.RiskProfile)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	if err := analysis.ValidateFile(req.Filename); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = (domain.SourceFile{Name: req.Filename}).ResolveContentType()
	}

	now := time.Now()
	job := model.Job{
		JobID:       uuid.New().String(),
		RiskProfile: string(profile),
		Filename:    req.Filename,
		ContentType: contentType,
		Status:      string(domain.StatusPending),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.storage.CreateJob(c.Request.Context(), &job); err != nil {
		h.logger.Error("Failed to create job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create job",
		})
		return
	}

	h.logger.Info("Job created",
		slog.String("job_id", job.JobID),
		slog.String("risk_profile", job.RiskProfile),
		slog.String("filename", job.Filename),
	)

	c.JSON(http.StatusOK, dto.CreateJobResponse{
		JobID:     job.JobID,
		UploadURL: h.artifactURL(job.JobID, job.Filename),
	})
}

// StartJob handles POST /jobs/:job_id/start. It flips the job to RUNNING
// and enqueues it for the worker; 202 means accepted, not finished.
func (h *JobHandler) StartJob(c *gin.Context) {
	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	job, err := h.storage.GetJobByID(c.Request.Context(), jobID)
	if errors.Is(err, storage.ErrJobNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Job not found",
		})
		return
	}
	if err != nil {
		h.logger.Error("Failed to get job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get job",
		})
		return
	}

	if !h.artifacts.Exists(jobID, job.Filename) {
		c.JSON(http.StatusConflict, gin.H{
			"error": "Source document has not been uploaded",
		})
		return
	}

	if err := h.storage.MarkRunning(c.Request.Context(), jobID); err != nil {
		if errors.Is(err, storage.ErrNotStartable) {
			c.JSON(http.StatusConflict, gin.H{
				"error":  "Job cannot be started",
				"status": job.Status,
			})
			return
		}
		h.logger.Error("Failed to mark job running", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to start job",
		})
		return
	}

	body, _ := json.Marshal(startMessage{JobID: jobID})
	if err := h.rabbitClient.Publish(c.Request.Context(), body, "application/json"); err != nil {
		h.logger.Error("Failed to enqueue job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		if ferr := h.storage.MarkFailed(c.Request.Context(), jobID, "failed to enqueue job"); ferr != nil {
			h.logger.Error("Failed to mark job failed", slog.String("error", ferr.Error()))
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to enqueue job",
		})
		return
	}

	h.logger.Info("Job started", slog.String("job_id", jobID))

	c.JSON(http.StatusAccepted, dto.StartJobResponse{
		Message: "Processing started",
		JobID:   jobID,
	})
}

// GetJob handles GET /jobs/:job_id. Unknown ids return 404 so clients can
// distinguish gone jobs from transient failures.
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	job, err := h.storage.GetJobByID(c.Request.Context(), jobID)
	if errors.Is(err, storage.ErrJobNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Job not found",
		})
		return
	}
	if err != nil {
		h.logger.Error("Failed to get job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get job",
		})
		return
	}

	resp := dto.JobStatusResponse{
		JobID:  job.JobID,
		Status: job.Status,
	}
	if job.ResultURL.Valid {
		resp.ResultURL = job.ResultURL.String
	}
	if job.ErrorMessage.Valid {
		resp.Error = job.ErrorMessage.String
	}

	c.JSON(http.StatusOK, resp)
}

// PutArtifact handles PUT /artifacts/:job_id/:name, the upload target
// returned by CreateJob.
func (h *JobHandler) PutArtifact(c *gin.Context) {
	jobID := c.Param("job_id")
	name := c.Param("name")

	if _, err := h.storage.GetJobByID(c.Request.Context(), jobID); err != nil {
		if errors.Is(err, storage.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Job not found",
			})
			return
		}
		h.logger.Error("Failed to get job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get job",
		})
		return
	}

	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxArtifactBytes)
	defer body.Close()

	if err := h.artifacts.Save(jobID, name, body); err != nil {
		h.logger.Error("Failed to store artifact",
			slog.String("job_id", jobID),
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to store artifact",
		})
		return
	}

	h.logger.Info("Artifact stored",
		slog.String("job_id", jobID),
		slog.String("name", name),
	)

	c.JSON(http.StatusOK, gin.H{
		"message": "Artifact stored",
	})
}

// GetArtifact handles GET /artifacts/:job_id/:name. Result payloads are
// fetched through this route via the job's result_url.
func (h *JobHandler) GetArtifact(c *gin.Context) {
	jobID := c.Param("job_id")
	name := c.Param("name")

	if !h.artifacts.Exists(jobID, name) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Artifact not found",
		})
		return
	}

	path, err := h.artifacts.Path(jobID, name)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid artifact reference",
		})
		return
	}

	if name == artifacts.ResultName {
		c.Header("Content-Type", "application/json")
	}
	c.File(path)
}

const maxArtifactBytes = 32 << 20

func (h *JobHandler) artifactURL(jobID, name string) string {
	return fmt.Sprintf("%s/artifacts/%s/%s",
		strings.TrimRight(h.publicBaseURL, "/"), jobID, url.PathEscape(name))
}
