package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrJobNotFound is returned by a status query when the remote job
	// record no longer exists (HTTP 404).
	ErrJobNotFound = errors.New("job not found")

	// ErrPollExhausted is returned when consecutive status queries keep
	// failing and the failure budget runs out.
	ErrPollExhausted = errors.New("status polling exhausted after repeated failures")
)

// RejectedFileMessage is the fixed reason reported for files that do not
// match the accepted extensions.
const RejectedFileMessage = "Only .html or .xml files are accepted."

// ValidationError rejects a candidate file before any network call is made.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// SubmissionError indicates the job-creation call failed. No job record
// exists after this error.
type SubmissionError struct {
	Detail string
}

func (e *SubmissionError) Error() string {
	return "job submission failed: " + e.Detail
}

// UploadError indicates the artifact transfer failed. Status code and
// response body are kept verbatim for diagnosis.
type UploadError struct {
	StatusCode int
	Body       string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("artifact upload failed: status %d, body: %s", e.StatusCode, e.Body)
}

// StartError indicates the start call did not return the expected 202.
type StartError struct {
	StatusCode int
	Body       string
}

func (e *StartError) Error() string {
	return fmt.Sprintf("start not accepted: status %d, body: %s", e.StatusCode, e.Body)
}

// FetchError indicates result retrieval or parsing failed after the job
// reached a terminal success status. The result location stays valid and
// the fetch can be retried by the caller.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return "result fetch failed: " + e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
