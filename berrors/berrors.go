// Package berrors defines the error kinds used across the battery scheduler so that callers
// can decide whether to retry, abort, or surface a validation message without string matching.
package berrors

import "fmt"

// Kind classifies an error so the control loop knows how to react to it.
type Kind string

const (
	InvalidInput      Kind = "invalid_input"      // validation failure, surfaced to the caller with a field reason
	NoPrices          Kind = "no_prices"          // upstream has not published prices yet - a warning, not a failure
	InverterTransient Kind = "inverter_transient" // retryable I/O failure talking to the inverter
	InverterFatal     Kind = "inverter_fatal"     // retries exhausted, abort the current tick
	InternalInvariant Kind = "internal_invariant" // a bug - an invariant that should never be violated was
)

// Error wraps an underlying cause with a Kind and, for InvalidInput, the offending field.
type Error struct {
	Kind  Kind
	Field string // set only for InvalidInput
	Err   error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an *Error of the given kind wrapping err.
func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Invalid returns an InvalidInput error naming the offending field.
func Invalid(field string, err error) *Error {
	return &Error{Kind: InvalidInput, Field: field, Err: err}
}

// Invalidf is a convenience wrapper that formats the underlying error.
func Invalidf(field, format string, args ...interface{}) *Error {
	return Invalid(field, fmt.Errorf(format, args...))
}

// KindOf returns the Kind of err if it (or something it wraps) is an *Error, and ok=true.
func KindOf(err error) (Kind, bool) {
	for err != nil {
		if be, ok := err.(*Error); ok {
			return be.Kind, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return "", false
		}
		err = u.Unwrap()
	}
	return "", false
}
