package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"jobctl/internal/apperrors"
	"jobctl/internal/observability"
	"jobctl/pkg/circuitbreaker"
)

// followBatchLimit caps entries fetched per read while following, keeping
// each reconnect's resume window small.
const followBatchLimit = 500

// Streamer reads execution log streams, either as a finite tail or as an
// unbounded follow that survives read interruptions without duplicating or
// dropping entries.
type Streamer struct {
	svc     ExecutionService
	policy  FollowPolicy
	clock   Clock
	log     *slog.Logger
	metrics *observability.Metrics
}

// NewStreamer returns a streamer reading from svc. metrics may be nil.
func NewStreamer(svc ExecutionService, policy FollowPolicy, clock Clock, log *slog.Logger, metrics *observability.Metrics) *Streamer {
	if clock == nil {
		clock = RealClock{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Streamer{svc: svc, policy: policy.withDefaults(), clock: clock, log: log, metrics: metrics}
}

// Tail returns the last maxLines entries of the execution's log stream.
// maxLines <= 0 returns the whole stream. Tail is one-shot: it does not
// retry on error.
func (s *Streamer) Tail(ctx context.Context, executionID string, maxLines int) ([]LogEntry, error) {
	entries, err := s.svc.Logs(ctx, executionID, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("read logs of %s: %w", executionID, err)
	}
	if maxLines > 0 && len(entries) > maxLines {
		entries = entries[len(entries)-maxLines:]
	}
	return entries, nil
}

// Stream is a live log subscription. Entries are delivered in offset order
// on Entries until the stream terminates, after which the channel is closed
// and Err reports why: nil for a normal drain after the execution finished,
// the context error on caller cancellation, or a fatal stream error.
type Stream struct {
	entries chan LogEntry
	err     error
}

// Entries is the delivery channel. It is closed exactly once.
func (s *Stream) Entries() <-chan LogEntry { return s.entries }

// Err reports why the stream ended. Valid only after Entries is closed.
func (s *Stream) Err() error { return s.err }

// Follow streams the execution's log from the beginning until terminal is
// closed and the remaining entries are drained, or ctx is cancelled.
// Followers are pure observers: cancelling ctx stops reading without
// touching the remote execution.
//
// The follower remembers the offset of the last delivered entry; every read
// asks only for entries strictly after it, so reconnects after transport
// errors resume gap-free and duplicate-free. Repeated read failures trip a
// circuit breaker whose cooldown paces the reconnect attempts.
func (s *Streamer) Follow(ctx context.Context, executionID string, terminal <-chan struct{}) *Stream {
	stream := &Stream{entries: make(chan LogEntry)}
	go s.follow(ctx, executionID, terminal, stream)
	return stream
}

func (s *Streamer) follow(ctx context.Context, executionID string, terminal <-chan struct{}, stream *Stream) {
	defer close(stream.entries)

	log := s.log.With("executionId", executionID)
	breaker := circuitbreaker.New(s.policy.Breaker)
	var offset int64

	for {
		if ctx.Err() != nil {
			stream.err = ctx.Err()
			return
		}

		if !breaker.Allow() {
			if err := s.clock.Sleep(ctx, breaker.RetryAfter()); err != nil {
				stream.err = err
				return
			}
			continue
		}

		batch, err := s.svc.Logs(ctx, executionID, offset, followBatchLimit)
		if err != nil {
			if ctx.Err() != nil {
				stream.err = ctx.Err()
				return
			}
			if errors.Is(err, apperrors.ErrNotFound) {
				stream.err = fmt.Errorf("log stream of %s: %w", executionID, err)
				return
			}
			breaker.RecordFailure()
			if s.metrics != nil {
				s.metrics.RecordLogReconnect(ctx)
			}
			log.Warn("Log read failed, will resume",
				"offset", offset,
				"failures", breaker.Failures(),
				"error", err)
			if serr := s.clock.Sleep(ctx, s.policy.Interval); serr != nil {
				stream.err = serr
				return
			}
			continue
		}
		breaker.RecordSuccess()

		for _, entry := range batch {
			select {
			case stream.entries <- entry:
				offset = entry.Offset
			case <-ctx.Done():
				stream.err = ctx.Err()
				return
			}
		}
		if len(batch) > 0 {
			continue
		}

		// No new entries. Once the execution is terminal the stream cannot
		// grow, so an empty read means it is fully drained.
		select {
		case <-terminal:
			return
		default:
		}

		if err := s.clock.Sleep(ctx, s.policy.Interval); err != nil {
			stream.err = err
			return
		}
	}
}
