package models

import (
	"errors"
	"fmt"
)

// ErrorKind is a stable machine-readable error class exposed to the shell.
type ErrorKind string

const (
	KindInvalidSignal        ErrorKind = "invalid_signal"
	KindInvalidConfiguration ErrorKind = "invalid_configuration"
	KindModelInputMismatch   ErrorKind = "model_input_mismatch"
	KindUpstreamTimeout      ErrorKind = "upstream_timeout"
	KindInsufficientHistory  ErrorKind = "insufficient_history"
	KindStoreUnavailable     ErrorKind = "store_unavailable"
	KindInternal             ErrorKind = "internal"
)

// Error carries a stable kind plus a human-readable message. The shell is
// responsible for presentation; the core never emits markup.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// E builds an Error with a formatted message.
func E(kind ErrorKind, format string, a ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, a...)}
}

// Wrap builds an Error around an underlying cause.
func Wrap(kind ErrorKind, err error, format string, a ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, a...), Err: err}
}

// KindOf extracts the kind from an error chain, defaulting to internal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
