// Package demo implements the analysis.Driver contract without any network
// calls. Progress is advanced by local timers so the rest of the application
// can be exercised with no backend available.
package demo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/davitran/lawlens/internal/analysis"
	"github.com/davitran/lawlens/internal/analysis/domain"
)

const (
	// DefaultInitialDelay is how long a job stays PENDING before the
	// simulated transition to RUNNING.
	DefaultInitialDelay = 500 * time.Millisecond

	// DefaultTick is the spacing of simulated progress advances.
	DefaultTick = 120 * time.Millisecond

	// DefaultTotalDuration is the simulated wall time from start to
	// completion.
	DefaultTotalDuration = 9 * time.Second

	// DefaultProgressCap is the highest progress value reached before the
	// completion step jumps to 100.
	DefaultProgressCap = 96
)

// Options tunes the simulated timeline. Zero values use the defaults.
type Options struct {
	InitialDelay  time.Duration
	Tick          time.Duration
	TotalDuration time.Duration
	ProgressCap   int
}

// Driver is the local, deterministic job driver. It is interchangeable with
// the live HTTP client behind the same analysis.Driver interface.
type Driver struct {
	logger *slog.Logger
	opts   Options

	mu   sync.Mutex
	jobs map[string]*simJob
}

type simJob struct {
	file    domain.SourceFile
	profile domain.RiskProfile

	status    domain.Status
	progress  int
	resultURL string
	result    *domain.ResultPayload

	startTimer    *time.Timer
	completeTimer *time.Timer
	tickerDone    chan struct{}
}

var _ analysis.Driver = (*Driver)(nil)

// NewDriver creates a simulated driver.
func NewDriver(logger *slog.Logger, opts Options) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = DefaultInitialDelay
	}
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}
	if opts.TotalDuration <= opts.InitialDelay {
		opts.TotalDuration = DefaultTotalDuration
	}
	if opts.ProgressCap <= 0 || opts.ProgressCap >= 100 {
		opts.ProgressCap = DefaultProgressCap
	}
	return &Driver{
		logger: logger,
		opts:   opts,
		jobs:   make(map[string]*simJob),
	}
}

// CreateJob synthesizes a local job id and a placeholder upload target.
func (d *Driver) CreateJob(_ context.Context, file domain.SourceFile, profile domain.RiskProfile) (*analysis.Submission, error) {
	id := uuid.New().String()

	d.mu.Lock()
	d.jobs[id] = &simJob{
		file:    file,
		profile: profile,
		status:  domain.StatusPending,
	}
	d.mu.Unlock()

	d.logger.Debug("demo job created", slog.String("job_id", id))
	return &analysis.Submission{
		JobID: id,
		Target: domain.UploadTarget{
			URL:         "demo://upload/" + id,
			ContentType: file.ResolveContentType(),
		},
	}, nil
}

// Upload consumes the body and discards it; nothing leaves the process.
func (d *Driver) Upload(_ context.Context, _ domain.UploadTarget, body io.Reader) error {
	if body != nil {
		_, _ = io.Copy(io.Discard, body)
	}
	return nil
}

// Start kicks off the simulated timeline: a short delay to RUNNING, linear
// progress up to the cap, then a final step to 100 and COMPLETED with a
// synthesized payload.
func (d *Driver) Start(_ context.Context, jobID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	job, ok := d.jobs[jobID]
	if !ok {
		return domain.ErrJobNotFound
	}

	started := time.Now()
	ramp := d.opts.TotalDuration - d.opts.InitialDelay
	job.tickerDone = make(chan struct{})

	job.startTimer = time.AfterFunc(d.opts.InitialDelay, func() {
		d.withJob(jobID, func(j *simJob) {
			if j.status == domain.StatusPending {
				j.status = domain.StatusRunning
			}
		})
	})

	go func() {
		ticker := time.NewTicker(d.opts.Tick)
		defer ticker.Stop()
		for {
			select {
			case <-job.tickerDone:
				return
			case <-ticker.C:
			}
			elapsed := time.Since(started) - d.opts.InitialDelay
			if elapsed < 0 {
				continue
			}
			p := int(float64(d.opts.ProgressCap) * float64(elapsed) / float64(ramp))
			if p > d.opts.ProgressCap {
				p = d.opts.ProgressCap
			}
			d.withJob(jobID, func(j *simJob) {
				if j.status == domain.StatusRunning && p > j.progress {
					j.progress = p
				}
			})
		}
	}()

	job.completeTimer = time.AfterFunc(d.opts.TotalDuration, func() {
		d.withJob(jobID, func(j *simJob) {
			close(j.tickerDone)
			j.progress = 100
			j.status = domain.StatusCompleted
			j.resultURL = "demo://result/" + jobID
			j.result = synthesizeResult(j.file, j.profile)
		})
		d.logger.Debug("demo job completed", slog.String("job_id", jobID))
	})

	return nil
}

// Status reports the current simulated state.
func (d *Driver) Status(_ context.Context, jobID string) (*domain.StatusReport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	job, ok := d.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return &domain.StatusReport{
		Status:    job.status,
		Progress:  job.progress,
		ResultURL: job.resultURL,
	}, nil
}

// FetchResult resolves a demo result location to its synthesized payload.
func (d *Driver) FetchResult(_ context.Context, resultURL string) (*domain.ResultPayload, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, job := range d.jobs {
		if job.resultURL != "" && job.resultURL == resultURL {
			out := *job.result
			return &out, nil
		}
	}
	return nil, fmt.Errorf("no result at %s", resultURL)
}

// Close stops the timers of every simulated job.
func (d *Driver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, job := range d.jobs {
		if job.startTimer != nil {
			job.startTimer.Stop()
		}
		if job.completeTimer != nil {
			if job.completeTimer.Stop() && job.tickerDone != nil {
				close(job.tickerDone)
			}
		}
	}
}

func (d *Driver) withJob(jobID string, fn func(*simJob)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if job, ok := d.jobs[jobID]; ok {
		fn(job)
	}
}

func synthesizeResult(file domain.SourceFile, profile domain.RiskProfile) *domain.ResultPayload {
	return &domain.ResultPayload{
		Summary: fmt.Sprintf("Processed %s with risk %s.", file.Name, profile),
		Stocks:  []string{"AAPL", "MSFT", "NVDA", "AMZN", "GOOGL"},
		Comment: "Demo run: payload generated locally without contacting the analysis backend.",
	}
}
