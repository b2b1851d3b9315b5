package analysis

import (
	"path/filepath"
	"strings"

	"github.com/davitran/lawlens/internal/analysis/domain"
)

// acceptedExtensions are the only file extensions the analysis pipeline
// understands. Matching is by name only; content is never inspected.
var acceptedExtensions = map[string]bool{
	".htm":  true,
	".html": true,
	".xml":  true,
}

// ValidateFile gates a candidate file by its name. It must run before any
// network call; a rejected file never creates a job.
func ValidateFile(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	if !acceptedExtensions[ext] {
		return &domain.ValidationError{Reason: domain.RejectedFileMessage}
	}
	return nil
}
