// Package errors carries typed, code-tagged errors from the domain services
// to the HTTP layer.
package errors

import (
	stdErrors "errors"
)

// Conflict reasons carried in CodeConflict details.
const (
	ConflictIllegalTransition = "illegal_transition"
	ConflictStaleVersion      = "stale_version"
	ConflictTerminalBooking   = "terminal_booking"
)

// Error is safe to use through a nil pointer.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Wrap attaches code and message to err. A nil err behaves like New.
func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

// Conflict builds a CodeConflict error tagged with one of the Conflict* reasons.
func Conflict(reason, message string) *Error {
	return New(CodeConflict, message).WithDetails(map[string]any{"reason": reason})
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails replaces the details and returns e for chaining.
func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return string(e.code) + ": " + e.message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is matches another *Error with the same code, so sentinel values such as
// New(CodeNotFound, "") work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e != nil && t != nil && e.code == t.code
}

// As returns the outermost *Error in err's chain.
func As(err error) *Error {
	var typed *Error
	if err != nil && stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// HasCode reports whether the outermost *Error in err's chain has code.
func HasCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}

// Retryable reports whether err's code marks it as worth retrying. Untyped
// errors are treated as internal.
func Retryable(err error) bool {
	return MetadataFor(As(err).Code()).Retryable
}

// ConflictReason returns the reason tag of a conflict error, if any.
func ConflictReason(err error) string {
	typed := As(err)
	if typed == nil || typed.code != CodeConflict {
		return ""
	}
	details, _ := typed.details.(map[string]any)
	reason, _ := details["reason"].(string)
	return reason
}
