// Package apperr holds the error kinds surfaced by the bookdesk core.
package apperr

import (
	"errors"
	"fmt"
)

// ErrValidation marks a draft rejected by the book schema before any
// request was sent. It wraps a validation.Errors with per-field messages.
var ErrValidation = errors.New("validation failed")

// FetchError reports a failed list retrieval. The record store keeps its
// last known good snapshot when this is returned.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch books: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// MutationError reports a failed create, update or delete. No local state
// is changed when this is returned.
type MutationError struct {
	Op  string // create, update or delete
	ID  string // empty for create
	Err error
}

func (e *MutationError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s book %s: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("%s book: %v", e.Op, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

// Validation wraps a schema error so it matches ErrValidation while keeping
// the field details reachable through errors.As.
func Validation(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}
