// Package apperr holds the sentinel errors shared by the store, the REST layer and the canvas client.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation failed")
	ErrNetwork       = errors.New("network failure")
)

// Error wraps a sentinel with a human-readable reason, usually the message
// returned by the server.
type Error struct {
	Kind   error
	Reason string
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.Kind }

// Wrap returns an *Error of the given kind.
func Wrap(kind error, reason string) error {
	return &Error{Kind: kind, Reason: reason}
}

// Validation returns an ErrValidation with a reason.
func Validation(reason string) error {
	return Wrap(ErrValidation, reason)
}

// Reason returns the reason carried by err, or its message when err
// carries none.
func Reason(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Reason != "" {
		return e.Reason
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
