package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/davitran/lawlens/internal/analysis/domain"
)

const (
	// DefaultGraceDelay is the pause between upload completion and the
	// start call, covering the eventual-consistency window of the
	// upstream storage layer.
	DefaultGraceDelay = 800 * time.Millisecond

	// DefaultPollInterval is the fixed spacing between status queries.
	DefaultPollInterval = 2500 * time.Millisecond

	// DefaultPollFailureBudget is how many consecutive failed status
	// queries are tolerated before polling gives up.
	DefaultPollFailureBudget = 5

	defaultUpdateBuffer = 32
)

// Options tunes the lifecycle timing. Zero values fall back to the defaults
// above; tests shrink them to keep runs fast.
type Options struct {
	GraceDelay        time.Duration
	PollInterval      time.Duration
	PollFailureBudget int
	UpdateBuffer      int
}

// Snapshot is the read projection of the current submission that callers
// observe. The controller retains exclusive ownership of the underlying job.
type Snapshot struct {
	Generation uint64
	JobID      string
	Status     domain.Status
	Progress   int
	ResultURL  string
	Result     *domain.ResultPayload
	Err        error
	Busy       bool
}

// Controller drives one submission at a time through the full job
// lifecycle: create, upload, grace delay, start, poll, fetch. All timer and
// poll handles belong to the controller instance; a new submission cancels
// whatever the previous one left behind.
type Controller struct {
	driver Driver
	logger *slog.Logger
	opts   Options

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	snap   Snapshot
}

// NewController creates a controller bound to the given driver.
func NewController(driver Driver, logger *slog.Logger, opts Options) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.GraceDelay <= 0 {
		opts.GraceDelay = DefaultGraceDelay
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.PollFailureBudget <= 0 {
		opts.PollFailureBudget = DefaultPollFailureBudget
	}
	if opts.UpdateBuffer <= 0 {
		opts.UpdateBuffer = defaultUpdateBuffer
	}
	return &Controller{
		driver: driver,
		logger: logger,
		opts:   opts,
	}
}

// Submit validates the file and, if it passes, launches the lifecycle as a
// single cancellable task. Validation and profile errors are returned
// synchronously and leave no job behind; everything that happens after is
// reported through the returned update stream and via Snapshot. The stream
// is closed when the lifecycle ends, whatever the outcome.
func (c *Controller) Submit(ctx context.Context, file domain.SourceFile, body io.Reader, profile domain.RiskProfile) (<-chan Snapshot, error) {
	if err := ValidateFile(file.Name); err != nil {
		return nil, err
	}
	if _, err := domain.ParseRiskProfile(string(profile)); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	if c.cancel != nil {
		// Release the handles of any previous submission first.
		c.cancel()
	}
	c.gen++
	gen := c.gen
	c.cancel = cancel
	c.snap = Snapshot{Generation: gen, Busy: true}
	c.mu.Unlock()

	updates := make(chan Snapshot, c.opts.UpdateBuffer)
	go c.run(runCtx, gen, file, body, profile, updates)
	return updates, nil
}

// Snapshot returns the latest observed state of the current submission.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// CancelAll stops every pending delay and poll owned by the current
// submission and clears the busy flag. It is safe to call at any point in
// the lifecycle. Requests already in flight are not aborted; their late
// responses are discarded by the generation check.
func (c *Controller) CancelAll() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	// Late responses belonging to the cancelled submission must not
	// mutate state anymore.
	c.gen++
	c.snap.Busy = false
	snap := c.snap
	c.mu.Unlock()

	c.logger.Info("submission cancelled",
		slog.String("job_id", snap.JobID),
		slog.String("status", string(snap.Status)),
	)
}

// RetryFetch re-reads the result payload at the last known result location.
// Fetching is safely repeatable; a prior FetchError does not invalidate the
// location.
func (c *Controller) RetryFetch(ctx context.Context) error {
	c.mu.Lock()
	gen := c.gen
	resultURL := c.snap.ResultURL
	c.mu.Unlock()

	if resultURL == "" {
		return errors.New("no result location available")
	}

	result, err := c.driver.FetchResult(ctx, resultURL)
	if err != nil {
		ferr := &domain.FetchError{Err: err}
		c.mutate(gen, nil, func(s *Snapshot) { s.Err = ferr })
		return ferr
	}

	c.mutate(gen, nil, func(s *Snapshot) {
		s.Result = result
		s.Err = nil
	})
	return nil
}

// run sequences the lifecycle steps of one submission. Cancellation is
// checked between every step through ctx; state writes go through mutate,
// which drops anything from a stale generation.
func (c *Controller) run(ctx context.Context, gen uint64, file domain.SourceFile, body io.Reader, profile domain.RiskProfile, updates chan Snapshot) {
	defer close(updates)

	sub, err := c.driver.CreateJob(ctx, file, profile)
	if err != nil {
		c.fail(gen, updates, err)
		return
	}
	c.logger.Info("job created",
		slog.String("job_id", sub.JobID),
		slog.String("risk_profile", string(profile)),
		slog.String("filename", file.Name),
	)
	if !c.mutate(gen, updates, func(s *Snapshot) {
		s.JobID = sub.JobID
		s.Status = domain.StatusPending
	}) {
		return
	}

	if err := c.driver.Upload(ctx, sub.Target, body); err != nil {
		c.fail(gen, updates, err)
		return
	}
	c.logger.Info("artifact uploaded",
		slog.String("job_id", sub.JobID),
		slog.Int64("byte_size", file.ByteSize),
		slog.String("content_type", sub.Target.ContentType),
	)

	// The processing service reads the object from storage; give the
	// storage layer its consistency window before triggering the start.
	if !sleepCtx(ctx, c.opts.GraceDelay) {
		return
	}

	if err := c.driver.Start(ctx, sub.JobID); err != nil {
		c.fail(gen, updates, err)
		return
	}
	if !c.mutate(gen, updates, func(s *Snapshot) { s.Status = domain.StatusRunning }) {
		return
	}
	c.logger.Info("processing started", slog.String("job_id", sub.JobID))

	c.poll(ctx, gen, sub.JobID, updates)
}

// poll queries the job status on a fixed interval until a terminal state,
// a not-found answer, budget exhaustion, or cancellation.
func (c *Controller) poll(ctx context.Context, gen uint64, jobID string, updates chan Snapshot) {
	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		rep, err := c.driver.Status(ctx, jobID)
		if errors.Is(err, domain.ErrJobNotFound) {
			// The record disappeared server-side: completed-and-expired
			// and lost are indistinguishable here, so the job ends in
			// the explicit UNKNOWN state.
			c.logger.Warn("job disappeared during polling", slog.String("job_id", jobID))
			c.mutate(gen, updates, func(s *Snapshot) {
				s.Status = domain.StatusUnknown
				s.Busy = false
			})
			return
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			failures++
			c.logger.Warn("status poll failed",
				slog.String("job_id", jobID),
				slog.Int("consecutive_failures", failures),
				slog.Int("budget", c.opts.PollFailureBudget),
				slog.String("error", err.Error()),
			)
			if failures >= c.opts.PollFailureBudget {
				c.fail(gen, updates, fmt.Errorf("%w: %v", domain.ErrPollExhausted, err))
				return
			}
			// Transient failure: skip this tick, keep the interval.
			continue
		}
		failures = 0

		var result *domain.ResultPayload
		var fetchErr error
		if rep.Status == domain.StatusCompleted && rep.ResultURL != "" {
			result, fetchErr = c.driver.FetchResult(ctx, rep.ResultURL)
			if fetchErr != nil {
				fetchErr = &domain.FetchError{Err: fetchErr}
				c.logger.Error("result fetch failed",
					slog.String("job_id", jobID),
					slog.String("result_url", rep.ResultURL),
					slog.String("error", fetchErr.Error()),
				)
			}
		}

		ok := c.mutate(gen, updates, func(s *Snapshot) {
			s.Status = rep.Status
			if rep.Progress > s.Progress {
				s.Progress = rep.Progress
			}
			if rep.ResultURL != "" {
				s.ResultURL = rep.ResultURL
			}
			if result != nil {
				s.Result = result
			}
			if fetchErr != nil {
				s.Err = fetchErr
			}
			if rep.Status.Terminal() {
				s.Busy = false
			}
		})
		if !ok {
			return
		}
		if rep.Status.Terminal() {
			c.logger.Info("job reached terminal status",
				slog.String("job_id", jobID),
				slog.String("status", string(rep.Status)),
			)
			return
		}
	}
}

// mutate applies fn to the snapshot if gen is still the current generation
// and pushes the new snapshot to the update stream. It returns false when
// the write was discarded as stale.
func (c *Controller) mutate(gen uint64, updates chan<- Snapshot, fn func(*Snapshot)) bool {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return false
	}
	fn(&c.snap)
	snap := c.snap
	c.mu.Unlock()

	if updates != nil {
		// Snapshot() always carries the latest state, so a lagging
		// reader may miss intermediate updates.
		select {
		case updates <- snap:
		default:
		}
	}
	return true
}

func (c *Controller) fail(gen uint64, updates chan<- Snapshot, err error) {
	if c.mutate(gen, updates, func(s *Snapshot) {
		s.Status = domain.StatusFailed
		s.Err = err
		s.Busy = false
	}) {
		c.logger.Error("job lifecycle failed", slog.String("error", err.Error()))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
