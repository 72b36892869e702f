package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics holds all application metrics covering the lifecycle flow:
// - Traffic: submissions, polls, notifications, downloads
// - Errors: poll transport failures, failed notifications
// - Latency: execution duration from submission to terminal state
type Metrics struct {
	meter metric.Meter

	// Submission and tracking metrics
	SubmissionsTotal  metric.Int64Counter
	PollsTotal        metric.Int64Counter
	PollErrorsTotal   metric.Int64Counter
	ExecutionsTotal   metric.Int64Counter
	ExecutionDuration metric.Float64Histogram

	// Log streaming metrics
	LogReconnectsTotal metric.Int64Counter

	// Notification metrics
	NotificationsSent       metric.Int64Counter
	NotificationsFailed     metric.Int64Counter
	NotificationsSuppressed metric.Int64Counter

	// Artifact metrics
	ArtifactsDownloaded metric.Int64Counter
	ArtifactBytes       metric.Int64Counter
}

// NewMetrics creates and registers all metrics with a Prometheus exporter.
func NewMetrics(ctx context.Context) (*Metrics, http.Handler, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter("jobctl")
	m := &Metrics{meter: meter}

	m.SubmissionsTotal, err = meter.Int64Counter(
		"submissions_total",
		metric.WithDescription("Total number of executions submitted"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.PollsTotal, err = meter.Int64Counter(
		"polls_total",
		metric.WithDescription("Total number of status polls issued"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.PollErrorsTotal, err = meter.Int64Counter(
		"poll_errors_total",
		metric.WithDescription("Total number of status polls that failed at the transport level"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.ExecutionsTotal, err = meter.Int64Counter(
		"executions_total",
		metric.WithDescription("Total number of executions reaching a terminal state"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.ExecutionDuration, err = meter.Float64Histogram(
		"execution_duration_seconds",
		metric.WithDescription("Execution duration from submission to terminal state in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600, 7200),
	)
	if err != nil {
		return nil, nil, err
	}

	m.LogReconnectsTotal, err = meter.Int64Counter(
		"log_reconnects_total",
		metric.WithDescription("Total number of log stream reconnects"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.NotificationsSent, err = meter.Int64Counter(
		"notifications_sent_total",
		metric.WithDescription("Total outcome notifications delivered"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.NotificationsFailed, err = meter.Int64Counter(
		"notifications_failed_total",
		metric.WithDescription("Total outcome notifications that failed to deliver"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.NotificationsSuppressed, err = meter.Int64Counter(
		"notifications_suppressed_total",
		metric.WithDescription("Total duplicate notifications suppressed by the dispatcher"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.ArtifactsDownloaded, err = meter.Int64Counter(
		"artifacts_downloaded_total",
		metric.WithDescription("Total artifacts downloaded"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.ArtifactBytes, err = meter.Int64Counter(
		"artifact_bytes_total",
		metric.WithDescription("Total artifact bytes downloaded"),
	)
	if err != nil {
		return nil, nil, err
	}

	return m, promhttp.Handler(), nil
}

// RecordSubmission records a new execution being submitted.
func (m *Metrics) RecordSubmission(ctx context.Context, jobName string) {
	m.SubmissionsTotal.Add(ctx, 1, WithJob(jobName))
}

// RecordPoll records one status poll.
func (m *Metrics) RecordPoll(ctx context.Context) {
	m.PollsTotal.Add(ctx, 1)
}

// RecordPollError records a status poll failing at the transport level.
func (m *Metrics) RecordPollError(ctx context.Context) {
	m.PollErrorsTotal.Add(ctx, 1)
}

// RecordExecutionFinished records an execution reaching a terminal state.
func (m *Metrics) RecordExecutionFinished(ctx context.Context, outcome string, durationSeconds float64) {
	attrs := metric.WithAttributes(outcomeAttr(outcome))
	m.ExecutionsTotal.Add(ctx, 1, attrs)
	m.ExecutionDuration.Record(ctx, durationSeconds, attrs)
}

// RecordLogReconnect records a log stream reconnect.
func (m *Metrics) RecordLogReconnect(ctx context.Context) {
	m.LogReconnectsTotal.Add(ctx, 1)
}

// RecordNotificationSent records a delivered outcome notification.
func (m *Metrics) RecordNotificationSent(ctx context.Context) {
	m.NotificationsSent.Add(ctx, 1)
}

// RecordNotificationFailed records a notification delivery failure.
func (m *Metrics) RecordNotificationFailed(ctx context.Context) {
	m.NotificationsFailed.Add(ctx, 1)
}

// RecordNotificationSuppressed records a duplicate notification being suppressed.
func (m *Metrics) RecordNotificationSuppressed(ctx context.Context) {
	m.NotificationsSuppressed.Add(ctx, 1)
}

// RecordArtifactDownloaded records one artifact download and its size.
func (m *Metrics) RecordArtifactDownloaded(ctx context.Context, bytes int64) {
	m.ArtifactsDownloaded.Add(ctx, 1)
	m.ArtifactBytes.Add(ctx, bytes)
}
