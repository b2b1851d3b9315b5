// Package artifacts is the blob store behind the upload targets and result
// locations handed out by the job API. It stands in for the object-storage
// bucket of the hosted deployment: one directory per job, flat files inside.
package artifacts

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ResultName is the well-known artifact name of the analysis output.
const ResultName = "result.json"

// Store persists job artifacts on the local filesystem.
type Store struct {
	baseDir string
}

// NewStore creates the base directory if needed.
func NewStore(baseDir string) (*Store, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("artifacts base dir is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifacts dir %s: %w", baseDir, err)
	}
	return &Store{baseDir: baseDir}, nil
}

// Save writes one artifact for a job, overwriting any previous object with
// the same name.
func (s *Store) Save(jobID, name string, r io.Reader) error {
	path, err := s.resolve(jobID, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create job directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create artifact %s: %w", name, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("failed to write artifact %s: %w", name, err)
	}
	return nil
}

// Open returns a reader for an artifact. The caller must close it.
func (s *Store) Open(jobID, name string) (io.ReadCloser, error) {
	path, err := s.resolve(jobID, name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact %s: %w", name, err)
	}
	return f, nil
}

// Exists reports whether an artifact is present.
func (s *Store) Exists(jobID, name string) bool {
	path, err := s.resolve(jobID, name)
	if err != nil {
		return false
	}
	_, statErr := os.Stat(path)
	return statErr == nil
}

// Path returns the filesystem location of an artifact.
func (s *Store) Path(jobID, name string) (string, error) {
	return s.resolve(jobID, name)
}

// resolve maps (jobID, name) to a path inside the base directory. Both
// parts are reduced to their base name so a crafted id or filename cannot
// escape the store.
func (s *Store) resolve(jobID, name string) (string, error) {
	jobID = filepath.Base(strings.TrimSpace(jobID))
	name = filepath.Base(strings.TrimSpace(name))
	if jobID == "" || jobID == "." || jobID == string(filepath.Separator) {
		return "", fmt.Errorf("invalid job id")
	}
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid artifact name")
	}
	return filepath.Join(s.baseDir, jobID, name), nil
}
