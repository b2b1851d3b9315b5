package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/davitran/lawlens/internal/server/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "lawlens-api",
		})
	})

	jobHandler := handler.NewJobHandler(deps)

	jobs := r.Group("/jobs")
	{
		// POST /jobs - Register a job, hand back the upload target
		jobs.POST("", jobHandler.CreateJob)

		// GET /jobs/:job_id - Poll job status
		jobs.GET("/:job_id", jobHandler.GetJob)

		// POST /jobs/:job_id/start - Kick off processing (202)
		jobs.POST("/:job_id/start", jobHandler.StartJob)
	}

	a := r.Group("/artifacts")
	{
		// PUT /artifacts/:job_id/:name - Upload the source document
		a.PUT("/:job_id/:name", jobHandler.PutArtifact)

		// GET /artifacts/:job_id/:name - Fetch stored artifacts and results
		a.GET("/:job_id/:name", jobHandler.GetArtifact)
	}

	return r
}
