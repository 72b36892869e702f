// Package exitcode defines process exit codes and maps errors onto them.
package exitcode

import (
	"errors"

	"jobctl/internal/apperrors"
)

// Exit codes returned by the CLI. Submission and config problems are
// distinguished from execution outcomes so callers can branch on them.
const (
	Success         = 0
	GeneralError    = 1
	UsageError      = 2
	ConfigError     = 3
	SubmissionError = 4
	ExecutionFailed = 5
	TimedOut        = 6
	Cancelled       = 7
	TrackingLost    = 8
	NotFound        = 9
)

// FromError maps an error to an exit code via errors.Is classification.
func FromError(err error) int {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, apperrors.ErrConfig):
		return ConfigError
	case errors.Is(err, apperrors.ErrValidation):
		return UsageError
	case errors.Is(err, apperrors.ErrSubmission):
		return SubmissionError
	case errors.Is(err, apperrors.ErrExecutionFailed):
		return ExecutionFailed
	case errors.Is(err, apperrors.ErrTimeout):
		return TimedOut
	case errors.Is(err, apperrors.ErrCancelled):
		return Cancelled
	case errors.Is(err, apperrors.ErrPoll):
		return TrackingLost
	case errors.Is(err, apperrors.ErrNotFound):
		return NotFound
	default:
		return GeneralError
	}
}
