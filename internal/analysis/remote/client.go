// Package remote implements the analysis.Driver contract against the real
// job API: job records, a direct-to-storage upload target, a start trigger
// and a status/result surface.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/davitran/lawlens/internal/analysis"
	"github.com/davitran/lawlens/internal/analysis/domain"
)

const defaultRequestTimeout = 60 * time.Second

// Client talks to the job API over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ analysis.Driver = (*Client)(nil)

// NewClient creates a live driver for the API at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type createJobRequest struct {
	RiskProfile string `json:"risk_profile"`
	ContentType string `json:"content_type"`
	Filename    string `json:"filename"`
}

type createJobResponse struct {
	JobID     string `json:"job_id"`
	UploadURL string `json:"upload_url"`
}

// CreateJob registers the job and returns the upload target. Any
// non-success response becomes a SubmissionError carrying the response
// detail; no job exists after a failure.
func (c *Client) CreateJob(ctx context.Context, file domain.SourceFile, profile domain.RiskProfile) (*analysis.Submission, error) {
	contentType := file.ResolveContentType()
	payload, err := json.Marshal(createJobRequest{
		RiskProfile: string(profile),
		ContentType: contentType,
		Filename:    file.Name,
	})
	if err != nil {
		return nil, &domain.SubmissionError{Detail: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/jobs", bytes.NewReader(payload))
	if err != nil {
		return nil, &domain.SubmissionError{Detail: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.SubmissionError{Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(resp.Body)
		return nil, &domain.SubmissionError{
			Detail: fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))),
		}
	}

	var created createJobResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, &domain.SubmissionError{Detail: "malformed response: " + err.Error()}
	}
	if created.JobID == "" || created.UploadURL == "" {
		return nil, &domain.SubmissionError{Detail: "response missing job_id or upload_url"}
	}

	return &analysis.Submission{
		JobID: created.JobID,
		Target: domain.UploadTarget{
			URL:         created.UploadURL,
			ContentType: contentType,
		},
	}, nil
}

// Upload PUTs the file body to the upload target in a single shot. The
// status code and response body of a failure are preserved verbatim.
func (c *Client) Upload(ctx context.Context, target domain.UploadTarget, body io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target.URL, body)
	if err != nil {
		return &domain.UploadError{StatusCode: 0, Body: err.Error()}
	}
	req.Header.Set("Content-Type", target.ContentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.UploadError{StatusCode: 0, Body: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return &domain.UploadError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}
	return nil
}

// Start triggers processing. The backend answers 202 when it accepted the
// job; every other status is fatal.
func (c *Client) Start(ctx context.Context, jobID string) error {
	url := fmt.Sprintf("%s/jobs/%s/start", c.baseURL, jobID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return &domain.StartError{StatusCode: 0, Body: err.Error()}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.StartError{StatusCode: 0, Body: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		respBody, _ := io.ReadAll(resp.Body)
		return &domain.StartError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}
	return nil
}

type statusResponse struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	ResultURL string `json:"result_url"`
}

// Status queries the job record. A 404 means the record is gone and maps to
// domain.ErrJobNotFound; the live API reports no numeric progress.
func (c *Client) Status(ctx context.Context, jobID string) (*domain.StatusReport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/jobs/"+jobID, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrJobNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status query failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("malformed status response: %w", err)
	}

	return &domain.StatusReport{
		Status:    domain.Status(status.Status),
		ResultURL: status.ResultURL,
	}, nil
}

// FetchResult reads and parses the result payload. A failure does not
// invalidate the location; the read is safely repeatable.
func (c *Client) FetchResult(ctx context.Context, resultURL string) (*domain.ResultPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resultURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("result read failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var payload domain.ResultPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("malformed result payload: %w", err)
	}
	return &payload, nil
}
