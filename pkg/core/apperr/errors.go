// Package apperr defines the failure taxonomy shared by every analysis module.
//
// Modules return *Error values; the dispatcher turns them into {"error": msg} records
// so no failure crosses the engine boundary as a panic.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	InsufficientData Kind = "insufficient_data"
	InvalidInput     Kind = "invalid_input"
	UnknownTask      Kind = "unknown_task"
	UnknownModel     Kind = "unknown_model"
	ComputationError Kind = "computation_error"
	ModelNotTrained  Kind = "model_not_trained"
)

// Error is a typed engine failure.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "valuation.EnhancedDCF"
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, &Error{Kind: InvalidInput}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Msg == ""
}

// New builds an error of the given kind.
func New(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying error.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf reports the kind of err, or "" when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err (or anything it wraps) has the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
