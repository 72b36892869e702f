package exitcode

import (
	"fmt"
	"testing"

	"jobctl/internal/apperrors"
)

func TestFromError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, Success},
		{"config missing field", apperrors.ConfigMissingField("topics"), ConfigError},
		{"config malformed", apperrors.ConfigMalformed("ref", fmt.Errorf("bad yaml")), ConfigError},
		{"validation", apperrors.Validation("endpoint", "required"), UsageError},
		{"submission", apperrors.Submission("start", fmt.Errorf("quota")), SubmissionError},
		{"execution failed", apperrors.ExecutionFailed("exec-1", "boom"), ExecutionFailed},
		{"timed out", apperrors.Timeout("exec-1", 0), TimedOut},
		{"cancelled", apperrors.Cancelled("exec-1"), Cancelled},
		{"tracking lost", apperrors.Poll("status", 5, fmt.Errorf("refused")), TrackingLost},
		{"not found", apperrors.NotFound("artifact", "outputs/x/"), NotFound},
		{"internal", apperrors.Internal("op", fmt.Errorf("fail")), GeneralError},
		{"plain error", fmt.Errorf("unknown"), GeneralError},
		{"wrapped config", fmt.Errorf("submit: %w", apperrors.ConfigMissingField("dataset")), ConfigError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := FromError(tt.err); got != tt.want {
				t.Errorf("FromError() = %d, want %d", got, tt.want)
			}
		})
	}
}
