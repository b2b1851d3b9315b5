package domain

import "fmt"

// Status represents the lifecycle state of an analysis job.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	// StatusUnknown is reported when the remote job record disappeared
	// mid-poll, so neither completion nor failure can be confirmed.
	StatusUnknown Status = "UNKNOWN"
)

// Terminal reports whether no further transitions can leave this status.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusUnknown:
		return true
	}
	return false
}

// RiskProfile selects which downstream analysis variant runs.
type RiskProfile string

const (
	RiskSafe   RiskProfile = "SAFE"
	RiskMedium RiskProfile = "MEDIUM"
	RiskRisky  RiskProfile = "RISKY"
)

// ParseRiskProfile validates a raw profile value against the closed enum.
func ParseRiskProfile(s string) (RiskProfile, error) {
	switch RiskProfile(s) {
	case RiskSafe, RiskMedium, RiskRisky:
		return RiskProfile(s), nil
	}
	return "", fmt.Errorf("invalid risk profile: %q (must be SAFE, MEDIUM or RISKY)", s)
}

// SourceFile describes the document selected for analysis.
type SourceFile struct {
	Name        string
	ByteSize    int64
	ContentType string
}

// ResolveContentType returns the declared content type if present,
// application/xml for .xml files, and text/html otherwise.
func (f SourceFile) ResolveContentType() string {
	if f.ContentType != "" {
		return f.ContentType
	}
	if hasSuffixFold(f.Name, ".xml") {
		return "application/xml"
	}
	return "text/html"
}

func hasSuffixFold(s, suffix string) bool {
	if len(s) < len(suffix) {
		return false
	}
	tail := s[len(s)-len(suffix):]
	for i := 0; i < len(suffix); i++ {
		a, b := tail[i], suffix[i]
		if 'A' <= a && a <= 'Z' {
			a += 'a' - 'A'
		}
		if a != b {
			return false
		}
	}
	return true
}

// UploadTarget is a short-lived write destination issued at submission time.
// It is consumed exactly once by the upload step.
type UploadTarget struct {
	URL         string
	ContentType string
}

// ResultPayload is the analysis output. The controller treats it as opaque
// and passes it through to the caller unchanged.
type ResultPayload struct {
	Summary string   `json:"summary"`
	Stocks  []string `json:"stocks"`
	Comment string   `json:"comment"`
}

// StatusReport is a single observation of a job returned by a status query.
type StatusReport struct {
	Status    Status
	Progress  int
	ResultURL string
}
