package llm

import (
	"errors"
	"fmt"
)

// Error types for classifying LLM call failures.

// TransientError represents a temporary failure that may succeed on retry
// (timeouts, rate limits, 5xx responses, transport resets).
type TransientError struct {
	err error
}

func (e *TransientError) Error() string {
	return e.err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.err
}

// NewTransientError wraps an error as transient (retryable).
func NewTransientError(err error) error {
	return &TransientError{err: err}
}

// FatalError represents a permanent failure that must not be retried
// (authentication failures, malformed requests).
type FatalError struct {
	err error
}

func (e *FatalError) Error() string {
	return e.err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.err
}

// NewFatalError wraps an error as fatal (non-retryable).
func NewFatalError(err error) error {
	return &FatalError{err: err}
}

// IsTransient returns true if the error is transient and should be retried.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// IsFatal returns true if the error is fatal and should not be retried.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}

// ExternalServiceError is returned by Complete when a call could not be
// completed: either the retry budget was exhausted on transient failures,
// or a fatal failure cut the attempt loop short. It carries the last
// underlying cause and the number of attempts actually made.
type ExternalServiceError struct {
	Attempts int
	Cause    error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("external service failed after %d attempt(s): %v", e.Attempts, e.Cause)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Cause
}
