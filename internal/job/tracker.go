package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"jobctl/internal/apperrors"
	"jobctl/internal/observability"
)

// cancelRequestTimeout bounds the best-effort remote cancel issued when a
// wait times out or is cancelled. The caller's context is already done at
// that point, so the request runs on its own deadline.
const cancelRequestTimeout = 10 * time.Second

// Tracker owns the execution state machine. It polls the execution service
// at a fixed base interval, backing off exponentially on transport errors
// only, and escalates to a fatal tracking-lost error once consecutive
// transport failures exceed the policy's budget.
//
// States move Pending → Running → one of Succeeded, Failed, TimedOut,
// Cancelled. Terminal states are final: the tracker never transitions out of
// one, and it issues at most one remote cancel request per execution even
// when a timeout and a caller cancellation race.
type Tracker struct {
	svc     ExecutionService
	policy  PollPolicy
	clock   Clock
	log     *slog.Logger
	metrics *observability.Metrics
}

// NewTracker returns a tracker polling svc under policy. metrics may be nil.
func NewTracker(svc ExecutionService, policy PollPolicy, clock Clock, log *slog.Logger, metrics *observability.Metrics) *Tracker {
	if clock == nil {
		clock = RealClock{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Tracker{svc: svc, policy: policy.withDefaults(), clock: clock, log: log, metrics: metrics}
}

// Status reports the current remote state of an execution without blocking
// or waiting. It is available regardless of any concurrent Wait.
func (t *Tracker) Status(ctx context.Context, executionID string) (*Execution, error) {
	remote, err := t.svc.Status(ctx, executionID)
	if err != nil {
		return nil, fmt.Errorf("query status of %s: %w", executionID, err)
	}
	return remote, nil
}

// Wait blocks until exec reaches a terminal state, its local timeout
// expires, or ctx is cancelled. Wait owns the execution: on timeout or
// cancellation it issues one best-effort remote cancel and records TimedOut
// or Cancelled locally. The returned error classifies non-success outcomes;
// tracking-lost errors leave the execution in its last observed state.
func (t *Tracker) Wait(ctx context.Context, exec *Execution) (State, error) {
	return t.track(ctx, exec, true)
}

// Watch blocks like Wait but only observes: caller cancellation stops
// watching without cancelling the remote execution, and the execution's
// local timeout is not enforced. Log followers use it to learn when the
// stream can be drained.
func (t *Tracker) Watch(ctx context.Context, exec *Execution) (State, error) {
	return t.track(ctx, exec, false)
}

func (t *Tracker) track(ctx context.Context, exec *Execution, owns bool) (State, error) {
	log := t.log.With("executionId", exec.ID, "jobName", exec.JobName)

	var deadline time.Time
	if owns && exec.Timeout > 0 {
		deadline = exec.SubmittedAt.Add(exec.Timeout)
	}

	consecutive := 0
	for {
		// Cancellation and timeout are checked here, at the top of each
		// iteration, never mid-call.
		if exec.State.Terminal() {
			return exec.State, t.terminalErr(exec)
		}
		if ctx.Err() != nil {
			if !owns {
				return exec.State, ctx.Err()
			}
			t.finish(exec, StateCancelled, log)
			return StateCancelled, apperrors.Cancelled(exec.ID)
		}
		if !deadline.IsZero() && !t.clock.Now().Before(deadline) {
			t.finish(exec, StateTimedOut, log)
			return StateTimedOut, apperrors.Timeout(exec.ID, exec.Timeout)
		}

		remote, err := t.svc.Status(ctx, exec.ID)
		if t.metrics != nil {
			t.metrics.RecordPoll(ctx)
		}
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			if errors.Is(err, apperrors.ErrNotFound) {
				return exec.State, fmt.Errorf("execution vanished: %w", err)
			}
			consecutive++
			if t.metrics != nil {
				t.metrics.RecordPollError(ctx)
			}
			if consecutive > t.policy.FailureBudget {
				return exec.State, apperrors.Poll("status", consecutive, err)
			}
			delay := t.policy.Backoff.Delay(consecutive)
			log.Warn("Status poll failed, backing off",
				"attempt", consecutive,
				"delay", delay,
				"error", err)
			_ = t.clock.Sleep(ctx, delay)
			continue
		}
		consecutive = 0

		t.apply(ctx, exec, remote, log)
		if exec.State.Terminal() {
			return exec.State, t.terminalErr(exec)
		}

		_ = t.clock.Sleep(ctx, t.policy.Interval)
	}
}

// apply merges one remote observation into the local record. Transitions
// only ever move forward: regressions reported by the service are ignored.
func (t *Tracker) apply(ctx context.Context, exec *Execution, remote *Execution, log *slog.Logger) {
	prev := exec.State
	next := remote.State
	if next == prev {
		return
	}
	if stateRank(next) < stateRank(prev) {
		log.Warn("Ignoring state regression", "from", prev, "to", next)
		return
	}

	if prev == StatePending {
		exec.StartedAt = remote.StartedAt
		if exec.StartedAt.IsZero() {
			exec.StartedAt = t.clock.Now()
		}
	}

	exec.State = next
	log.Info("State changed", "from", prev, "to", next)

	if next.Terminal() {
		exec.EndedAt = remote.EndedAt
		if exec.EndedAt.IsZero() {
			exec.EndedAt = t.clock.Now()
		}
		exec.Error = remote.Error
		if t.metrics != nil {
			t.metrics.RecordExecutionFinished(ctx, string(next), exec.Duration().Seconds())
		}
		log.Info("Execution finished",
			"state", next,
			"duration", exec.Duration())
	}
}

// finish records a locally decided terminal state, issuing the best-effort
// remote cancel first.
func (t *Tracker) finish(exec *Execution, state State, log *slog.Logger) {
	t.requestCancel(exec, log)
	if exec.State.Terminal() {
		return
	}
	exec.State = state
	exec.EndedAt = t.clock.Now()
	if t.metrics != nil {
		t.metrics.RecordExecutionFinished(context.Background(), string(state), exec.Duration().Seconds())
	}
	log.Info("Execution finished", "state", state, "duration", exec.Duration())
}

// requestCancel asks the service to stop the execution, at most once per
// execution. Failures are logged and otherwise ignored: the local outcome is
// already decided.
func (t *Tracker) requestCancel(exec *Execution, log *slog.Logger) {
	if exec.cancelRequested {
		return
	}
	exec.cancelRequested = true

	ctx, cancel := context.WithTimeout(context.Background(), cancelRequestTimeout)
	defer cancel()
	if err := t.svc.Cancel(ctx, exec.ID); err != nil {
		log.Warn("Remote cancel failed", "error", err)
		return
	}
	log.Info("Remote cancel requested")
}

func (t *Tracker) terminalErr(exec *Execution) error {
	switch exec.State {
	case StateFailed:
		return apperrors.ExecutionFailed(exec.ID, exec.Error)
	case StateTimedOut:
		return apperrors.Timeout(exec.ID, exec.Timeout)
	case StateCancelled:
		return apperrors.Cancelled(exec.ID)
	default:
		return nil
	}
}

func stateRank(s State) int {
	switch {
	case s.Terminal():
		return 2
	case s == StateRunning:
		return 1
	default:
		return 0
	}
}
