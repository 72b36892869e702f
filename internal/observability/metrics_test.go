package observability

import (
	"context"
	"testing"
)

func TestNewMetrics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	metrics, handler, err := NewMetrics(ctx)
	if err != nil {
		t.Fatalf("Failed to create metrics: %v", err)
	}

	if metrics == nil {
		t.Fatal("Expected metrics to be non-nil")
	}

	if handler == nil {
		t.Fatal("Expected handler to be non-nil")
	}
}

func TestRecordTrackingMetrics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	metrics, _, err := NewMetrics(ctx)
	if err != nil {
		t.Fatalf("Failed to create metrics: %v", err)
	}

	// Should not panic
	metrics.RecordSubmission(ctx, "seo-dataset-v1")
	metrics.RecordPoll(ctx)
	metrics.RecordPoll(ctx)
	metrics.RecordPollError(ctx)
	metrics.RecordExecutionFinished(ctx, "Succeeded", 42.5)
	metrics.RecordExecutionFinished(ctx, "TimedOut", 5.0)
	metrics.RecordLogReconnect(ctx)
}

func TestRecordNotificationMetrics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	metrics, _, err := NewMetrics(ctx)
	if err != nil {
		t.Fatalf("Failed to create metrics: %v", err)
	}

	// Should not panic
	metrics.RecordNotificationSent(ctx)
	metrics.RecordNotificationFailed(ctx)
	metrics.RecordNotificationSuppressed(ctx)
	metrics.RecordArtifactDownloaded(ctx, 2048)
}
