package job

import (
	"context"
	"log/slog"
	"sync"

	"jobctl/internal/apperrors"
	"jobctl/internal/observability"
)

// Dispatcher sends exactly one outcome notification per terminal execution.
// Re-observing an execution that already notified is a no-op, so restarting
// a wait or re-running the terminal handling cannot produce duplicates.
//
// Delivery failures are logged and swallowed: a lost notification never
// alters the recorded outcome or the caller's exit path.
type Dispatcher struct {
	notifier Notifier // nil means log-only delivery
	log      *slog.Logger
	metrics  *observability.Metrics

	mu    sync.Mutex
	seen  map[string]struct{}
	stats DispatchStats
}

// DispatchStats counts dispatch outcomes since construction.
type DispatchStats struct {
	Sent       int
	Failed     int
	Suppressed int
}

// NewDispatcher returns a dispatcher delivering through notifier. A nil
// notifier logs the notification instead of sending it; metrics may be nil.
func NewDispatcher(notifier Notifier, log *slog.Logger, metrics *observability.Metrics) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		notifier: notifier,
		log:      log,
		metrics:  metrics,
		seen:     make(map[string]struct{}),
	}
}

// Dispatch builds and sends the outcome notification for a terminal
// execution. Success and failure outcomes both notify. The returned error is
// non-nil only when exec is not terminal; delivery failures are absorbed
// here.
func (d *Dispatcher) Dispatch(ctx context.Context, exec *Execution, artifacts []OutputArtifact) error {
	if !exec.State.Terminal() {
		return apperrors.Validation("state", "cannot notify for a non-terminal execution")
	}

	d.mu.Lock()
	if _, dup := d.seen[exec.ID]; dup {
		d.stats.Suppressed++
		d.mu.Unlock()
		if d.metrics != nil {
			d.metrics.RecordNotificationSuppressed(ctx)
		}
		d.log.Debug("Notification already dispatched", "executionId", exec.ID)
		return nil
	}
	d.seen[exec.ID] = struct{}{}
	d.mu.Unlock()

	n := NewNotification(exec, artifacts)
	log := d.log.With("executionId", exec.ID, "jobName", exec.JobName, "outcome", n.Outcome)

	if d.notifier == nil {
		d.recordSent(ctx)
		log.Info("Notification", "text", n.Summary())
		return nil
	}

	if err := d.notifier.Notify(ctx, n); err != nil {
		d.mu.Lock()
		d.stats.Failed++
		d.mu.Unlock()
		if d.metrics != nil {
			d.metrics.RecordNotificationFailed(ctx)
		}
		log.Warn("Notification delivery failed", "error", apperrors.Notification(err))
		return nil
	}

	d.recordSent(ctx)
	log.Info("Notification sent", "text", n.Summary())
	return nil
}

func (d *Dispatcher) recordSent(ctx context.Context) {
	d.mu.Lock()
	d.stats.Sent++
	d.mu.Unlock()
	if d.metrics != nil {
		d.metrics.RecordNotificationSent(ctx)
	}
}

// Stats returns a snapshot of the dispatch counters.
func (d *Dispatcher) Stats() DispatchStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}
