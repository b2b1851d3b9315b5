package handler

import (
	"log/slog"

	"github.com/davitran/lawlens/internal/artifacts"
	"github.com/davitran/lawlens/internal/server/storage"
	"github.com/davitran/lawlens/shared/postgresql"
	"github.com/davitran/lawlens/shared/rabbitmq"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger        *slog.Logger
	DBClient      *postgresql.Client
	RabbitClient  *rabbitmq.Client
	Artifacts     *artifacts.Store
	PublicBaseURL string
}

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	logger        *slog.Logger
	storage       *storage.Storage
	rabbitClient  *rabbitmq.Client
	artifacts     *artifacts.Store
	publicBaseURL string
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger:        deps.Logger,
		storage:       storage.NewStorage(deps.DBClient),
		rabbitClient:  deps.RabbitClient,
		artifacts:     deps.Artifacts,
		publicBaseURL: deps.PublicBaseURL,
	}
}
