// Package errors provides structured error handling for attrflow
package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeInternal represents internal system errors
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeConfig represents configuration errors (missing or invalid
	// bindings, surfaced at initialization)
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeValidation represents health-check failures (backend
	// unreachable or misconfigured)
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeQueryConstruction represents a resolution context that lacks
	// data the query template requires
	ErrorTypeQueryConstruction ErrorType = "query_construction"
	// ErrorTypeConnection represents connection acquisition failures and
	// pool exhaustion
	ErrorTypeConnection ErrorType = "connection"
	// ErrorTypeExecution represents query execution failures
	ErrorTypeExecution ErrorType = "execution"
	// ErrorTypeTimeout represents exceeded query or acquisition deadlines.
	// Timeout is a subtype of execution: IsType(err, ErrorTypeExecution)
	// also matches timeout errors.
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeMapping represents raw results whose shape cannot be
	// interpreted
	ErrorTypeMapping ErrorType = "mapping"
	// ErrorTypeNoResult represents zero matches under a connector whose
	// no-result policy treats that as an error
	ErrorTypeNoResult ErrorType = "no_result"
	// ErrorTypeState represents operations invoked outside their valid
	// lifecycle state
	ErrorTypeState ErrorType = "state"
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new error with a formatted message
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsRetryable returns true if the error represents a transient condition.
// The connector framework itself never retries; this classification is for
// external callers that implement their own retry policy.
func IsRetryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}

	switch e.Type {
	case ErrorTypeConnection, ErrorTypeTimeout:
		return true
	default:
		return false
	}
}

// IsType checks if the error is of the given type. Timeout errors also
// match ErrorTypeExecution, since a timeout is an execution failure.
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	if e.Type == errType {
		return true
	}
	return errType == ErrorTypeExecution && e.Type == ErrorTypeTimeout
}

// TypeOf returns the error type, or ErrorTypeInternal for foreign errors
func TypeOf(err error) ErrorType {
	var e *Error
	if !errors.As(err, &e) {
		return ErrorTypeInternal
	}
	return e.Type
}

// captureStack captures the current call stack
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
