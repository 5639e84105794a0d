package errors

import (
	"context"
	"errors"
	"fmt"
)

// Common error types used across the pipework library

var (
	// ErrClosed indicates that an operation was attempted on a closed queue
	ErrClosed = errors.New("queue is closed")

	// ErrAlreadyClosed indicates that a queue was closed more than once,
	// which violates the single-owner close discipline
	ErrAlreadyClosed = errors.New("queue already closed")

	// ErrFull indicates that a non-blocking send found the queue full
	ErrFull = errors.New("queue is full")

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrPipelineRunning indicates that a pipeline was mutated or started
	// while already running
	ErrPipelineRunning = errors.New("pipeline already running")

	// ErrRateLimited indicates that a request was rate limited
	ErrRateLimited = errors.New("rate limited")
)

// IsCancellation returns true if the error originates from context
// cancellation or an expired deadline rather than a failed unit of work.
// Stages exiting because the pipeline was cancelled are not failures.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// IsRetryable returns true if the error indicates a condition that might
// be resolved by retrying the operation
func IsRetryable(err error) bool {
	return errors.Is(err, ErrFull) || errors.Is(err, ErrRateLimited)
}

// ValidationError describes a rejected configuration value with enough
// context to correct it.
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
	Hint   string
}

// NewValidationError creates a ValidationError for the given module and field.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint attaches a remediation hint to the error.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: %s %s (got %v)", e.Module, e.Field, e.Reason, e.Value)
	if e.Hint != "" {
		msg += ": " + e.Hint
	}
	return msg
}

// Unwrap allows errors.Is(err, ErrInvalidConfiguration) to match.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// IsValidationError returns true if err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
