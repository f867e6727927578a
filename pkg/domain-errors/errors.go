// Package domainerrors provides coded domain errors. Services return these so
// transport layers can translate them into HTTP responses without inspecting
// error strings, and without leaking internals for server-side faults.
//
// Conventionally imported as dErrors.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for transport mapping.
type Code string

const (
	CodeBadRequest Code = "bad_request"
	CodeValidation Code = "validation_error"
	CodeNotFound   Code = "not_found"
	CodeConflict   Code = "conflict"
	CodeInternal   Code = "internal_error"
)

// Error is a domain error carrying a code and a human-readable message.
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

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error, preserving the
// chain for errors.Is/As.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is a readability alias for HasCode at call sites that read like
// dErrors.Is(err, dErrors.CodeBadRequest).
func Is(err error, code Code) bool { return HasCode(err, code) }

// GetCode extracts the code from err, defaulting to CodeInternal for
// unclassified errors.
func GetCode(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// Message extracts the user-facing message from err. Unclassified errors have
// no safe user-facing message.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}

// ToHTTPStatus maps a code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
