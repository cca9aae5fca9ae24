package remote

import (
	"errors"
	"fmt"
)

// Sentinel errors for remote collection operations.
var (
	ErrNotFound    = errors.New("remote: not found")
	ErrBadRequest  = errors.New("remote: bad request")
	ErrRateLimited = errors.New("remote: rate limited by server")
	ErrServer      = errors.New("remote: server error")
	ErrDecode      = errors.New("remote: malformed response")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op  string // list, create, update, delete
	ID  string // if applicable
	Err error
}

func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("remote %s [%s]: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("remote %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(op, id string, err error) error {
	return &Error{Op: op, ID: id, Err: err}
}
