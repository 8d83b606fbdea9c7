package services

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a referenced project or point does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmptyProject is returned when a summary is requested for a project
// with zero points.
var ErrEmptyProject = errors.New("no points to summarize")

// ValidationError reports malformed input. Never retried automatically.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// QuotaExceededError carries the numeric limit that was hit so the client
// can present an upgrade path.
type QuotaExceededError struct {
	Limit int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded (limit %d)", e.Limit)
}

// UpstreamError wraps a completion-service failure or timeout. Safe to
// retry manually: nothing is persisted on this path.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string { return fmt.Sprintf("upstream error: %v", e.Err) }
func (e *UpstreamError) Unwrap() error { return e.Err }

// StorageError wraps an opaque persistence-layer failure. Retry safety is
// operation-dependent: creations mint a new identity on every attempt, so
// retrying after an ambiguous failure can duplicate rows.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage error: %v", e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

func validationErr(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
