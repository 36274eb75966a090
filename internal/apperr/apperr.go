// Package apperr defines the error kinds surfaced by the service and a helper
// to build domain errors that classify as one of them.
package apperr

import "errors"

var (
	// ErrNotFound indicates an unknown or expired session, or a missing association.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates a malformed request value.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUpstreamDegraded indicates a best-effort dependency failed.
	ErrUpstreamDegraded = errors.New("upstream degraded")
	// ErrInternal indicates a storage or other unexpected failure.
	ErrInternal = errors.New("internal error")
)

// Error is a domain error tagged with a kind.
type Error struct {
	kind error
	msg  string
}

// New returns an error with the given message that unwraps to kind.
func New(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string {
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.kind
}

// KindOf classifies err into one of the kind sentinels. Unclassified errors
// are Internal.
func KindOf(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrInvalidInput):
		return ErrInvalidInput
	case errors.Is(err, ErrUpstreamDegraded):
		return ErrUpstreamDegraded
	default:
		return ErrInternal
	}
}

// Code returns the wire code for err's kind.
func Code(err error) string {
	switch KindOf(err) {
	case ErrNotFound:
		return "NOT_FOUND"
	case ErrInvalidInput:
		return "INVALID_INPUT"
	case ErrUpstreamDegraded:
		return "UPSTREAM_DEGRADED"
	case nil:
		return ""
	default:
		return "INTERNAL"
	}
}
