package domainerrors

import "errors"

// Code represents a domain error category independent of transport layer.
// These codes describe what went wrong in business logic terms, not HTTP terms.
type Code string

const (
	CodeNotFound     Code = "not_found"
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeValidation   Code = "validation_failed"
	CodeInternal     Code = "internal_error"
	CodeConflict     Code = "conflict"

	// CodeUnauthenticated covers rejected credentials. The message is kept
	// deliberately generic so callers cannot distinguish an unknown username
	// from a wrong password.
	CodeUnauthenticated Code = "unauthenticated"

	// CodeAccountState covers locked, blocked, and not-yet-authorized
	// accounts. Unlike CodeUnauthenticated, the message may name the state:
	// the account holder already knows it.
	CodeAccountState Code = "account_state"

	// CodeForbidden means the caller is authenticated but lacks the
	// privileged role required for the operation.
	CodeForbidden Code = "forbidden"

	// CodeTransient marks storage timeouts and other failures that are safe
	// to retry without any state having changed.
	CodeTransient Code = "transient"
)

// Error wraps domain or infrastructure failures with a stable code.
// It is transport-agnostic and can be used across service, store, and other layers.
type Error struct {
	Code    Code
	Message string
	Err     error

	// Violations lists every failed policy rule for CodeValidation errors.
	// Policy checks collect all failures instead of short-circuiting, so the
	// caller can report them together.
	Violations []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// NewValidation creates a validation error carrying the full violation list.
func NewValidation(msg string, violations []string) error {
	return &Error{Code: CodeValidation, Message: msg, Violations: violations}
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		// Preserve the original domain code, update message
		return &Error{Code: existing.Code, Message: msg, Err: err, Violations: existing.Violations}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
