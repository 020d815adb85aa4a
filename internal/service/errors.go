package service

import (
	"errors"
	"fmt"

	"github.com/rdmlabs/agent-api/internal/store"
)

// ErrJobNotFound surfaces an unknown job id to the boundary.
var ErrJobNotFound = store.ErrNotFound

// ValidationError marks malformed or missing caller input. Never retried,
// surfaced immediately.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// PaymentError marks a rejected payment service call, at request creation or
// settlement time. Not retried by the broker.
type PaymentError struct {
	Op  string // "create" or "settle"
	Err error
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("payment %s failed: %v", e.Op, e.Err)
}

func (e *PaymentError) Unwrap() error { return e.Err }

// ExecutionError marks a failed task execution. Terminal for the job.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution failed: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is the unknown-job condition.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrJobNotFound)
}
