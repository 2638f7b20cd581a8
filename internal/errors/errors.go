// Package errors defines the typed error values used across sqlembed.
// Parse and config failures are recoverable by design: the orchestrator
// absorbs them at its boundary and they surface only through diagnostics.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies a failure for diagnostics and tests.
type ErrorType string

const (
	// ErrorTypeParse marks malformed host-language source.
	ErrorTypeParse ErrorType = "parse"
	// ErrorTypeConfig marks a configuration payload that failed to decode
	// or validate.
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeExtract marks a failure scoped to a single literal node.
	ErrorTypeExtract ErrorType = "extract"
	// ErrorTypeInternal marks unexpected internal failures.
	ErrorTypeInternal ErrorType = "internal"
)

// Error carries the failure class, the operation that failed and the
// underlying cause.
type Error struct {
	Type       ErrorType
	Operation  string
	Underlying error
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s error in %s: %v", e.Type, e.Operation, e.Underlying)
	}
	return fmt.Sprintf("%s error in %s", e.Type, e.Operation)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// NewParseError creates a parse error for the given operation.
func NewParseError(op string, err error) *Error {
	return &Error{Type: ErrorTypeParse, Operation: op, Underlying: err}
}

// NewConfigError creates a configuration error for the given operation.
func NewConfigError(op string, err error) *Error {
	return &Error{Type: ErrorTypeConfig, Operation: op, Underlying: err}
}

// NewExtractError creates a node-scoped extraction error.
func NewExtractError(op string, err error) *Error {
	return &Error{Type: ErrorTypeExtract, Operation: op, Underlying: err}
}

// IsType reports whether err (or anything it wraps) is an *Error of the
// given type.
func IsType(err error, t ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}
