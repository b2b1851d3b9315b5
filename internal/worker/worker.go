package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/davitran/lawlens/internal/artifacts"
	"github.com/davitran/lawlens/internal/worker/domain"
	"github.com/davitran/lawlens/internal/worker/storage"
	"github.com/davitran/lawlens/shared/postgresql"
	"github.com/davitran/lawlens/shared/rabbitmq"
)

// Config holds worker configuration
type Config struct {
	Logger        *slog.Logger
	DBClient      *postgresql.Client
	RabbitClient  *rabbitmq.Client
	Artifacts     *artifacts.Store
	PublicBaseURL string
	Concurrency   int
	PrefetchCount int
	JobTimeout    time.Duration
}

// Worker consumes job-start messages and runs document analyses.
type Worker struct {
	logger        *slog.Logger
	rabbitClient  *rabbitmq.Client
	storage       *storage.Storage
	artifacts     *artifacts.Store
	publicBaseURL string
	workerID      string
	concurrency   int
	prefetchCount int
	jobTimeout    time.Duration
	jobsChan      chan *domain.JobMessage
	wg            sync.WaitGroup
	stopChan      chan struct{}
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	return &Worker{
		logger:        cfg.Logger,
		rabbitClient:  cfg.RabbitClient,
		storage:       storage.NewStorage(cfg.DBClient.DB(), cfg.Logger),
		artifacts:     cfg.Artifacts,
		publicBaseURL: cfg.PublicBaseURL,
		workerID:      fmt.Sprintf("worker-%s", uuid.New().String()[:8]),
		concurrency:   cfg.Concurrency,
		prefetchCount: cfg.PrefetchCount,
		jobTimeout:    cfg.JobTimeout,
		jobsChan:      make(chan *domain.JobMessage),
		stopChan:      make(chan struct{}),
	}
}

// Start begins consuming and processing jobs. It blocks until the context
// is canceled or the delivery channel closes.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("job_timeout", w.jobTimeout),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return fmt.Errorf("failed to set up consumer: %w", err)
	}

	w.spawnWorkerPool(ctx)
	w.startMessageDispatcher(ctx, deliveries)

	return nil
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("Worker stopped")
}
