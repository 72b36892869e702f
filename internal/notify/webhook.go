// Package notify delivers outcome notifications to a webhook endpoint as
// signed JSON payloads.
package notify

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"jobctl/internal/config"
	"jobctl/internal/job"
	"jobctl/pkg/backoff"
	"jobctl/pkg/webhook"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultMaxRetries = 2
)

// Config holds webhook delivery settings.
type Config struct {
	URL     string         // destination endpoint
	Secret  string         // HMAC signing key; empty sends unsigned
	Timeout time.Duration  // per-attempt HTTP timeout
	Backoff backoff.Config // delay between retries; zero value uses defaults
}

// LoadConfigFromEnv loads the webhook secret and tuning from environment
// variables. The destination URL comes from the resolved CLI configuration.
func LoadConfigFromEnv(url string) Config {
	return Config{
		URL:     url,
		Secret:  config.GetEnv("JOBCTL_WEBHOOK_SECRET", ""),
		Timeout: config.GetDurationEnv("JOBCTL_WEBHOOK_TIMEOUT", defaultTimeout),
	}
}

// Notifier implements job.Notifier by posting one JSON payload per outcome.
type Notifier struct {
	sender  *webhook.Sender
	url     string
	secret  string
	backoff backoff.Config
	log     *slog.Logger
}

var _ job.Notifier = (*Notifier)(nil)

// New creates a webhook notifier for the configured destination.
func New(cfg Config, log *slog.Logger) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Notifier{
		sender:  webhook.NewSender(timeout),
		url:     cfg.URL,
		secret:  cfg.Secret,
		backoff: cfg.Backoff,
		log:     log,
	}
}

// Notify delivers the notification, retrying transient failures with
// backoff. Client errors are returned immediately; a receiver that rejects
// the payload will reject its replay too.
func (n *Notifier) Notify(ctx context.Context, notification *job.Notification) error {
	opts := webhook.SendOptions{
		SigningKey: n.secret,
		EventType:  "job." + strings.ToLower(string(notification.Outcome)),
		DeliveryID: notification.ExecutionID,
	}
	body := payloadFrom(notification)

	var lastErr error
	for attempt := range defaultMaxRetries + 1 {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(n.backoff.Delay(attempt)):
			}
			n.log.Debug("Retrying notification delivery",
				"attempt", attempt, "executionId", notification.ExecutionID)
		}

		lastErr = n.sender.Send(ctx, n.url, body, opts)
		if lastErr == nil {
			return nil
		}
		if webhook.IsClientError(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

// payload is the wire form of an outcome notification.
type payload struct {
	Outcome     string   `json:"outcome"`
	JobName     string   `json:"job_name"`
	ExecutionID string   `json:"execution_id"`
	DurationSec float64  `json:"duration_seconds"`
	Artifacts   []string `json:"artifacts,omitempty"`
	Error       string   `json:"error,omitempty"`
	Text        string   `json:"text"`
}

func payloadFrom(n *job.Notification) payload {
	return payload{
		Outcome:     strings.ToLower(string(n.Outcome)),
		JobName:     n.JobName,
		ExecutionID: n.ExecutionID,
		DurationSec: n.Duration.Seconds(),
		Artifacts:   n.ArtifactRefs,
		Error:       n.ErrorMessage,
		Text:        n.Summary(),
	}
}
