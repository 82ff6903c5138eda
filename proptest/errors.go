package proptest

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind classifies why a test case failed.
type Kind string

const (
	// KindPropertyFailed means the property returned false or an error.
	KindPropertyFailed Kind = "PROPERTY_FAILED"
	// KindTimeout means the property or a shrink probe exceeded the timeout.
	KindTimeout Kind = "TIMEOUT"
	// KindBusinessRuleViolation means a critical invariant failed after an
	// otherwise successful property execution.
	KindBusinessRuleViolation Kind = "BUSINESS_RULE_VIOLATION"
	// KindValidation means the test configuration is invalid.
	KindValidation Kind = "VALIDATION_ERROR"
	// KindInternal means a user callback panicked.
	KindInternal Kind = "INTERNAL_ERROR"
)

// Sentinels for errors.Is matching on kind.
var (
	ErrPropertyFailed        = &Error{kind: KindPropertyFailed}
	ErrTimeout               = &Error{kind: KindTimeout}
	ErrBusinessRuleViolation = &Error{kind: KindBusinessRuleViolation}
	ErrValidation            = &Error{kind: KindValidation}
	ErrInternal              = &Error{kind: KindInternal}
)

// Error is the failure value produced by the engine.
type Error struct {
	kind    Kind
	message string
	cause   error
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

// Kind returns the failure classification.
func (e *Error) Kind() Kind { return e.kind }

// Message returns the error message without the cause.
func (e *Error) Message() string { return e.message }

// Unwrap returns the underlying cause for errors.As/errors.Is support.
func (e *Error) Unwrap() error { return e.cause }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.kind == e.kind
}

// MarshalJSON renders the error as plain data so results stay serializable.
func (e *Error) MarshalJSON() ([]byte, error) {
	out := struct {
		Kind    Kind   `json:"kind"`
		Message string `json:"message"`
		Cause   string `json:"cause,omitempty"`
	}{Kind: e.kind, Message: e.message}
	if e.cause != nil {
		out.Cause = e.cause.Error()
	}
	return json.Marshal(out)
}

// NewError creates an error of the given kind.
func NewError(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

// Errorf creates an error of the given kind with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an underlying error.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{kind: kind, message: message, cause: cause}
}

// Falsified creates a PROPERTY_FAILED error.
func Falsified(message string) *Error {
	return &Error{kind: KindPropertyFailed, message: message}
}

// Timeout creates a TIMEOUT error.
func Timeout(message string) *Error {
	return &Error{kind: KindTimeout, message: message}
}

// BusinessRuleViolation creates a BUSINESS_RULE_VIOLATION error.
func BusinessRuleViolation(message string) *Error {
	return &Error{kind: KindBusinessRuleViolation, message: message}
}

// Validationf creates a VALIDATION_ERROR with a formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{kind: KindValidation, message: fmt.Sprintf(format, args...)}
}

// Internal wraps a recovered panic or unexpected error as INTERNAL_ERROR.
func Internal(message string, cause error) *Error {
	return &Error{kind: KindInternal, message: message, cause: cause}
}

// asError converts an arbitrary error returned by a property into an *Error.
// Errors that already carry a kind keep it.
func asError(err error, fallback Kind, message string) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{kind: fallback, message: message, cause: err}
}
