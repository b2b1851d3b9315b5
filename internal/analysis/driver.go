package analysis

import (
	"context"
	"io"

	"github.com/davitran/lawlens/internal/analysis/domain"
)

// Submission is the outcome of a successful job-creation call: the id of the
// fresh remote record plus the single-use upload target for the artifact.
type Submission struct {
	JobID  string
	Target domain.UploadTarget
}

// Driver is the strategy behind the job lifecycle controller. Two
// interchangeable implementations exist: the live HTTP client in
// analysis/remote and the timer-driven local variant in analysis/demo.
// The controller never knows which one it is talking to.
type Driver interface {
	// CreateJob registers a new job under the given risk profile and
	// returns its id together with the upload target. Exactly one remote
	// record is created per successful call.
	CreateJob(ctx context.Context, file domain.SourceFile, profile domain.RiskProfile) (*Submission, error)

	// Upload transfers the file body to the target in a single shot,
	// using the content type agreed at submission.
	Upload(ctx context.Context, target domain.UploadTarget, body io.Reader) error

	// Start signals the backend to begin processing the uploaded
	// artifact. Anything but an explicit accept is fatal.
	Start(ctx context.Context, jobID string) error

	// Status queries the current state of a job. It returns
	// domain.ErrJobNotFound when the record no longer exists.
	Status(ctx context.Context, jobID string) (*domain.StatusReport, error)

	// FetchResult reads and parses the result payload. It has no side
	// effects server-side and is safe to repeat.
	FetchResult(ctx context.Context, resultURL string) (*domain.ResultPayload, error)
}
