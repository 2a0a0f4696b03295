// Package apperr defines the error taxonomy shared by every manager.
// Storage-driver errors are mapped into these kinds at the store layer and
// never leak past a manager boundary.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound marks a referenced id that does not exist. Terminal.
var ErrNotFound = errors.New("not found")

// ErrInvalidOperation marks a semantically disallowed request, such as a
// self-follow or a duplicate review for the same user and anime.
var ErrInvalidOperation = errors.New("invalid operation")

// ErrUnauthorized marks a failed credential check.
var ErrUnauthorized = errors.New("unauthorized")

// NotFound wraps ErrNotFound with the entity that was missing.
func NotFound(entity, id string) error {
	return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
}

// InvalidOperation wraps ErrInvalidOperation with a reason.
func InvalidOperation(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrInvalidOperation)
}

// ValidationError reports required fields missing from a request. It is never
// retried automatically and is surfaced verbatim to the caller.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}

// UploadError marks an asset-store failure before any document was written.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string { return "asset upload failed: " + e.Err.Error() }
func (e *UploadError) Unwrap() error { return e.Err }

// PartialDeletionError reports a cascade delete that stopped partway. Deleted
// lists the node ids already removed; Pending lists the ids still present so
// the caller can retry the delete, which is idempotent.
type PartialDeletionError struct {
	Deleted []string
	Pending []string
	Err     error
}

func (e *PartialDeletionError) Error() string {
	return fmt.Sprintf("cascade delete incomplete: %d deleted, %d pending: %v",
		len(e.Deleted), len(e.Pending), e.Err)
}

func (e *PartialDeletionError) Unwrap() error { return e.Err }
