// Package apperrors provides structured application errors for the job lifecycle.
package apperrors

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for classification via errors.Is().
var (
	ErrValidation      = errors.New("validation error")
	ErrConfig          = errors.New("config error")
	ErrSubmission      = errors.New("submission error")
	ErrPoll            = errors.New("poll error")
	ErrExecutionFailed = errors.New("execution failed")
	ErrTimeout         = errors.New("execution timed out")
	ErrCancelled       = errors.New("execution cancelled")
	ErrNotFound        = errors.New("not found")
	ErrNotification    = errors.New("notification error")
	ErrInternal        = errors.New("internal error")
)

// Error provides structured error with context.
type Error struct {
	Sentinel error  // Wrapped sentinel for errors.Is() classification
	Message  string // Human-readable message
	Field    string // For config/validation errors (e.g., "dataset.save_as")
	Resource string // For not found (e.g., "execution", "artifact")
	Op       string // Operation that failed (e.g., "docker.startExecution")
	Cause    error  // Underlying error
}

// Error returns the human-readable error message.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the sentinel error for errors.Is() classification.
func (e *Error) Unwrap() error {
	return e.Sentinel
}

// Validation creates a validation error for a specific field.
func Validation(field, message string) error {
	return &Error{
		Sentinel: ErrValidation,
		Message:  message,
		Field:    field,
	}
}

// ConfigMissingField creates a config error naming a required path that is absent.
func ConfigMissingField(path string) error {
	return &Error{
		Sentinel: ErrConfig,
		Message:  fmt.Sprintf("config missing required field %q", path),
		Field:    path,
	}
}

// ConfigMalformed creates a config error for a document that fails to parse.
func ConfigMalformed(ref string, cause error) error {
	return &Error{
		Sentinel: ErrConfig,
		Message:  fmt.Sprintf("config %s is malformed: %v", ref, cause),
		Resource: ref,
		Cause:    cause,
	}
}

// Submission creates a submission error. Submission failures are surfaced
// immediately, never retried locally.
func Submission(op string, cause error) error {
	return &Error{
		Sentinel: ErrSubmission,
		Message:  fmt.Sprintf("submission rejected: %s: %v", op, cause),
		Op:       op,
		Cause:    cause,
	}
}

// Poll creates a fatal tracking error after the consecutive-failure budget
// is exhausted.
func Poll(op string, attempts int, cause error) error {
	return &Error{
		Sentinel: ErrPoll,
		Message:  fmt.Sprintf("tracking lost: %s failed %d consecutive times: %v", op, attempts, cause),
		Op:       op,
		Cause:    cause,
	}
}

// ExecutionFailed creates an error for an execution that reached the Failed state.
func ExecutionFailed(executionID, message string) error {
	if message == "" {
		message = fmt.Sprintf("execution %s failed", executionID)
	}
	return &Error{
		Sentinel: ErrExecutionFailed,
		Message:  message,
		Resource: executionID,
	}
}

// Timeout creates an error for a wait that exceeded its local timeout.
func Timeout(executionID string, timeout time.Duration) error {
	return &Error{
		Sentinel: ErrTimeout,
		Message:  fmt.Sprintf("execution %s did not finish within %s", executionID, timeout),
		Resource: executionID,
	}
}

// Cancelled creates an error for a caller-cancelled wait.
func Cancelled(executionID string) error {
	return &Error{
		Sentinel: ErrCancelled,
		Message:  fmt.Sprintf("execution %s cancelled", executionID),
		Resource: executionID,
	}
}

// NotFound creates a not found error for a resource.
func NotFound(resource, id string) error {
	return &Error{
		Sentinel: ErrNotFound,
		Message:  fmt.Sprintf("%s %s not found", resource, id),
		Resource: resource,
	}
}

// Notification creates a notification transport error. These are logged and
// never escalated past the dispatcher.
func Notification(cause error) error {
	return &Error{
		Sentinel: ErrNotification,
		Message:  fmt.Sprintf("notification delivery failed: %v", cause),
		Cause:    cause,
	}
}

// Internal creates an internal error wrapping an underlying cause.
func Internal(op string, cause error) error {
	return &Error{
		Sentinel: ErrInternal,
		Message:  fmt.Sprintf("%s: %v", op, cause),
		Op:       op,
		Cause:    cause,
	}
}
