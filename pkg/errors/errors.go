// Package errors provides structured error types for the blueprints graph layer.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the Go API, CLI and HTTP server
//   - Machine-readable error codes for programmatic handling
//   - Normalizing store-specific failures into graph-level logical errors
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Logical graph errors carry one of the codes below. Store connectivity
// failures are never given a code; they propagate with their original type
// reachable through errors.Unwrap.
//
//   - NOT_FOUND: a mutation targeted a vertex or edge that does not exist
//   - DUPLICATE_ID: an explicit vertex id collides with an existing document
//   - DANGLING_EDGE: an edge property write hit a removed adjacency entry
//   - MALFORMED_IDENTIFIER: a composite edge id is not source|label|target
//   - UNSUPPORTED: the operation needs a structure this backend does not keep
//   - INVALID_INPUT: ids, labels or property keys the store cannot represent
//
// Lookups never return NOT_FOUND; they return a nil element and a nil error.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMalformedID, "edge id %q: want 3 parts", id)
//	if errors.Is(err, errors.ErrCodeMalformedID) {
//	    // Handle caller error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeDuplicateID, storeErr, "vertex %q exists", id)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for the graph error taxonomy.
const (
	// Input validation errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeMalformedID  Code = "MALFORMED_IDENTIFIER"

	// Element state errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeDuplicateID  Code = "DUPLICATE_ID"
	ErrCodeDanglingEdge Code = "DANGLING_EDGE"

	// Capability errors
	ErrCodeUnsupported Code = "UNSUPPORTED"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Unsupported is shorthand for an UNSUPPORTED error naming the operation.
func Unsupported(op string) *Error {
	return New(ErrCodeUnsupported, "%s is not supported by this backend", op)
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
