// Package errors provides structured error types for the Weft composition runtime.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the codec, graph, and activation layers
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - SCHEMA_* / UNSUPPORTED_* / EXCESSIVE_*: wire-format failures (corrupt or
//     version-skewed snapshots)
//   - UNRESOLVED_*: surrogate references that cannot be resolved in this process
//   - INVALID_*: input validation failures
//   - INTERNAL_*: unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeSchemaMismatch, "part record arity %d, want %d", got, want)
//	if errors.Is(err, errors.ErrCodeSchemaMismatch) {
//	    // Snapshot is stale or corrupt - rebuild from the source composition
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInternal, origErr, "decode %q", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Wire-format errors raised by the graph and metadata codecs
	ErrCodeSchemaMismatch       Code = "SCHEMA_MISMATCH"
	ErrCodeUnsupportedValueKind Code = "UNSUPPORTED_VALUE_KIND"
	ErrCodeExcessiveNesting     Code = "EXCESSIVE_NESTING"

	// Reference surrogate errors
	ErrCodeUnresolvedReference Code = "UNRESOLVED_REFERENCE"

	// Graph model errors
	ErrCodePartNotFound      Code = "PART_NOT_FOUND"
	ErrCodeGraphConstruction Code = "GRAPH_CONSTRUCTION"

	// Activation errors
	ErrCodeUnsatisfiableImport Code = "UNSATISFIABLE_IMPORT"
	ErrCodeNotInstantiable     Code = "NOT_INSTANTIABLE"

	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidSnapshot Code = "INVALID_SNAPSHOT"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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
