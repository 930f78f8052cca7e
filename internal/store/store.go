package store

import (
	"fmt"
	"path/filepath"
)

// Store defines the interface for run record persistence.
// Implementations must be safe for concurrent use.
//
// Error handling conventions:
//   - Return ErrNotFound if a record doesn't exist (for Load/Delete)
//   - Wrap underlying errors with context using fmt.Errorf("context: %w", err)
type Store interface {
	// SaveRun stores a finished run, overwriting any record with the same ID.
	SaveRun(record *RunRecord) error

	// LoadRun retrieves the record for the given run.
	// Returns ErrNotFound if no record exists for this id.
	LoadRun(id string) (*RunRecord, error)

	// ListRuns returns metadata for all stored runs, newest first.
	ListRuns() ([]RunInfo, error)

	// DeleteRun removes the record and every artifact stored with it
	// (the history trace included).
	DeleteRun(id string) error

	// Close releases the resources held by the store.
	Close() error
}

// ErrNotFound is returned when a requested run does not exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &NotFoundError{}

// NotFoundError represents a missing run record.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return "run not found: " + e.ID
	}
	return "run not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

// Backend names accepted by Open.
const (
	BackendFS     = "fs"
	BackendBadger = "badger"
)

// Open creates the store selected by backend rooted at dataDir. The Badger
// database lives in <dataDir>/badger; traces always stay under
// <dataDir>/jobs.
func Open(backend, dataDir string) (Store, error) {
	switch backend {
	case BackendFS, "":
		return NewFSStore(dataDir)
	case BackendBadger:
		return NewBadgerStore(BadgerConfig{
			Path:     filepath.Join(dataDir, "badger"),
			TraceDir: dataDir,
		})
	default:
		return nil, &ValidationError{Field: "backend", Reason: fmt.Sprintf("unknown store %q (want fs or badger)", backend)}
	}
}
