// Package derrors provides code-carrying domain errors. Services return these
// so transport layers can map them to HTTP statuses without inspecting strings.
package derrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error. Codes are stable API surface; messages are not.
type Code string

const (
	// CodeInvalidInput marks values rejected at a trust boundary (bad UUID, unknown enum).
	CodeInvalidInput Code = "invalid_input"
	// CodeBadRequest marks malformed request bodies.
	CodeBadRequest Code = "bad_request"
	// CodeValidation marks a request that parsed but fails a business rule
	// (missing rejection reason, petition without evidence).
	CodeValidation Code = "validation_error"
	// CodeUnauthorized marks missing or invalid credentials.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden marks an authenticated actor whose role is not allowed to
	// perform the requested transition.
	CodeForbidden Code = "unauthorized_transition"
	// CodeInvalidTransition marks a lifecycle edge that does not exist from the
	// petition's current state.
	CodeInvalidTransition Code = "invalid_transition"
	// CodeConflict marks a lost race: a concurrent writer committed first.
	CodeConflict Code = "conflict"
	// CodeNotFound marks a missing petition, evidence, user, slot or entry.
	CodeNotFound Code = "not_found"
	// CodeInvariantViolation marks a broken aggregate invariant. Constructors
	// return these; services usually convert them to CodeValidation.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeInternal marks unexpected failures; details stay in logs.
	CodeInternal Code = "internal_error"
)

// Error is the concrete domain error. It wraps an optional cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds a domain error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error, preserving the
// chain for errors.Is/As.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		if err == nil {
			return false
		}
	}
	return false
}

// Is is an alias for HasCode kept for call-site readability.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf returns the outermost code, or CodeInternal when err is not a domain error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
