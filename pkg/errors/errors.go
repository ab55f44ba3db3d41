// Package errors provides structured error types for netgraph.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the library, CLI and HTTP service
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Kinds
//
// The graph core distinguishes four outcomes that callers care about:
//   - STRUCTURAL_VIOLATION: invalid graph construction (cross-graph edge,
//     disallowed duplicate edge or self-loop, bad directedness argument)
//   - METADATA_CONTRACT_VIOLATION: a required metadata value is missing or
//     has the wrong type; the message names the offending key
//   - CALCULATION_FAILED: a metric calculator could not produce a result
//   - cancellation, which is deliberately not an error code; see package
//     metrics and pipeline
//
// # Usage
//
//	err := errors.New(errors.ErrCodeStructural, "vertex %d belongs to another graph", id)
//	if errors.Is(err, errors.ErrCodeStructural) {
//	    // Handle structural error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeCalculation, origErr, "parse centrality table")
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Graph core errors
	ErrCodeStructural       Code = "STRUCTURAL_VIOLATION"
	ErrCodeMetadataContract Code = "METADATA_CONTRACT_VIOLATION"
	ErrCodeCalculation      Code = "CALCULATION_FAILED"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidLayout Code = "INVALID_LAYOUT"

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

// Structural is shorthand for a STRUCTURAL_VIOLATION wrapping a sentinel.
// The sentinel stays reachable through errors.Is.
func Structural(sentinel error, format string, args ...any) *Error {
	return Wrap(ErrCodeStructural, sentinel, format, args...)
}

// MetadataContract is shorthand for a METADATA_CONTRACT_VIOLATION wrapping a sentinel.
func MetadataContract(sentinel error, format string, args ...any) *Error {
	return Wrap(ErrCodeMetadataContract, sentinel, format, args...)
}

// KeyError reports a metadata contract violation for one key.
// Callers can recover the key with errors.As; Err is usually a package
// sentinel such as graph.ErrMissingValue and stays reachable through errors.Is.
type KeyError struct {
	Key  string // Offending metadata key
	Err  error  // Reason
	Want string // Expected type, if relevant
	Got  string // Actual type, if relevant
}

// Error implements the error interface.
func (e *KeyError) Error() string {
	if e.Want != "" {
		return fmt.Sprintf("metadata key %q: %v (want %s, got %s)", e.Key, e.Err, e.Want, e.Got)
	}
	return fmt.Sprintf("metadata key %q: %v", e.Key, e.Err)
}

// Unwrap returns the reason.
func (e *KeyError) Unwrap() error { return e.Err }

// Code returns the error code for this error type.
func (e *KeyError) Code() Code {
	return ErrCodeMetadataContract
}
