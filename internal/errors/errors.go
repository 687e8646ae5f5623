// Package errors provides typed errors for the cost engine and its collaborators.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Type identifies the category of error
type Type string

const (
	// TypeInput indicates invalid caller input (unknown scenario, bad recipe)
	TypeInput Type = "INPUT_ERROR"

	// TypeParsing indicates a value or file that could not be parsed
	TypeParsing Type = "PARSING_ERROR"

	// TypeConfig indicates an invalid configuration, such as a bad tax table
	TypeConfig Type = "CONFIG_ERROR"

	// TypeNotFound indicates a missing series, part, sheet or file
	TypeNotFound Type = "NOT_FOUND"

	// TypeWorkbook indicates a spreadsheet that does not have the expected shape
	TypeWorkbook Type = "WORKBOOK_ERROR"

	// TypeInternal indicates an internal error
	TypeInternal Type = "INTERNAL_ERROR"
)

// Error represents a domain error with context
type Error struct {
	Type    Type                   `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same type.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new error
func New(errType Type, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new formatted error
func Newf(errType Type, format string, args ...interface{}) *Error {
	return New(errType, fmt.Sprintf(format, args...))
}

// Wrap wraps an error with context
func Wrap(errType Type, message string, cause error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an error with formatted context
func Wrapf(errType Type, cause error, format string, args ...interface{}) *Error {
	return Wrap(errType, fmt.Sprintf(format, args...), cause)
}

// IsType checks if an error, or anything it wraps, is of a specific type
func IsType(err error, t Type) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// As is errors.As from the standard library
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// Input creates an input error
func Input(format string, args ...interface{}) *Error {
	return Newf(TypeInput, format, args...)
}

// Parsing creates a parsing error
func Parsing(message string, cause error) *Error {
	return Wrap(TypeParsing, message, cause)
}

// Config creates a configuration error
func Config(format string, args ...interface{}) *Error {
	return Newf(TypeConfig, format, args...)
}

// Workbook creates a workbook shape error
func Workbook(message string, cause error) *Error {
	return Wrap(TypeWorkbook, message, cause)
}

// NotFound creates a not found error
func NotFound(kind, identifier string) *Error {
	return Newf(TypeNotFound, "%s not found: %s", kind, identifier)
}

// Internal creates an internal error
func Internal(message string, cause error) *Error {
	return Wrap(TypeInternal, message, cause)
}
