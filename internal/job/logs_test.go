package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"jobctl/internal/apperrors"
	"jobctl/internal/testutil"
	"jobctl/pkg/circuitbreaker"
)

func logBacklog(n int) []LogEntry {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	entries := make([]LogEntry, n)
	for i := range entries {
		entries[i] = LogEntry{
			Offset:    int64(i + 1),
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Text:      "line",
		}
	}
	return entries
}

func newTestStreamer(svc ExecutionService) *Streamer {
	return NewStreamer(svc, FollowPolicy{}, testutil.NewFakeClock(time.Now()), nil, nil)
}

// collect drains a stream to completion and returns the offsets received.
func collect(t *testing.T, stream *Stream) []int64 {
	t.Helper()
	var got []int64
	for entry := range stream.Entries() {
		got = append(got, entry.Offset)
	}
	return got
}

func checkContinuity(t *testing.T, got []int64, want int) {
	t.Helper()
	if len(got) != want {
		t.Fatalf("Expected %d entries, got %d: %v", want, len(got), got)
	}
	for i, off := range got {
		if off != int64(i+1) {
			t.Fatalf("Expected gap-free and duplicate-free offsets, got %v", got)
		}
	}
}

func TestStreamer_TailReturnsLastLines(t *testing.T) {
	t.Parallel()
	svc := &fakeExecutionService{logEntries: logBacklog(10)}

	entries, err := newTestStreamer(svc).Tail(context.Background(), "exec-1", 3)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	if entries[0].Offset != 8 || entries[2].Offset != 10 {
		t.Errorf("Expected the last three offsets, got %v", entries)
	}
}

func TestStreamer_TailWholeStream(t *testing.T) {
	t.Parallel()
	svc := &fakeExecutionService{logEntries: logBacklog(4)}

	entries, err := newTestStreamer(svc).Tail(context.Background(), "exec-1", 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(entries) != 4 {
		t.Errorf("Expected the whole stream, got %d entries", len(entries))
	}
}

func TestStreamer_TailError(t *testing.T) {
	t.Parallel()
	svc := &fakeExecutionService{logErr: apperrors.NotFound("execution", "ghost")}

	_, err := newTestStreamer(svc).Tail(context.Background(), "ghost", 0)
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("Expected not found error, got %v", err)
	}
}

func TestStreamer_FollowDrainsAfterTerminal(t *testing.T) {
	t.Parallel()
	svc := &fakeExecutionService{logEntries: logBacklog(5)}
	terminal := make(chan struct{})
	close(terminal)

	stream := newTestStreamer(svc).Follow(context.Background(), "exec-1", terminal)
	got := collect(t, stream)

	checkContinuity(t, got, 5)
	if stream.Err() != nil {
		t.Errorf("Expected clean termination, got %v", stream.Err())
	}
}

func TestStreamer_FollowResumesAfterErrors(t *testing.T) {
	t.Parallel()
	svc := &fakeExecutionService{
		logEntries:  logBacklog(6),
		logMaxBatch: 2,
		logFailOn:   map[int]bool{2: true, 5: true},
	}
	terminal := make(chan struct{})
	close(terminal)

	stream := newTestStreamer(svc).Follow(context.Background(), "exec-1", terminal)
	got := collect(t, stream)

	checkContinuity(t, got, 6)
	if stream.Err() != nil {
		t.Errorf("Expected clean termination, got %v", stream.Err())
	}
}

func TestStreamer_FollowReopensAfterCooldown(t *testing.T) {
	t.Parallel()
	svc := &fakeExecutionService{
		logEntries: logBacklog(2),
		logFailOn:  map[int]bool{1: true, 2: true, 3: true},
	}
	terminal := make(chan struct{})
	close(terminal)

	streamer := NewStreamer(svc, FollowPolicy{
		Breaker: circuitbreaker.Config{Threshold: 3, Cooldown: 20 * time.Millisecond},
	}, testutil.NewFakeClock(time.Now()), nil, nil)

	stream := streamer.Follow(context.Background(), "exec-1", terminal)
	got := collect(t, stream)

	checkContinuity(t, got, 2)
	if stream.Err() != nil {
		t.Errorf("Expected recovery after cooldown, got %v", stream.Err())
	}
}

func TestStreamer_FollowCancelled(t *testing.T) {
	t.Parallel()
	svc := &fakeExecutionService{logEntries: logBacklog(2)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := newTestStreamer(svc).Follow(ctx, "exec-1", make(chan struct{}))

	var got []int64
	for entry := range stream.Entries() {
		got = append(got, entry.Offset)
		if len(got) == 2 {
			cancel()
		}
	}

	checkContinuity(t, got, 2)
	if !errors.Is(stream.Err(), context.Canceled) {
		t.Errorf("Expected context error, got %v", stream.Err())
	}
}

func TestStreamer_FollowMissingExecutionFatal(t *testing.T) {
	t.Parallel()
	svc := &fakeExecutionService{logErr: apperrors.NotFound("execution", "ghost")}

	stream := newTestStreamer(svc).Follow(context.Background(), "ghost", make(chan struct{}))
	got := collect(t, stream)

	if len(got) != 0 {
		t.Errorf("Expected no entries, got %v", got)
	}
	if !errors.Is(stream.Err(), apperrors.ErrNotFound) {
		t.Errorf("Expected not found error, got %v", stream.Err())
	}
}

func TestStreamer_FollowLateEntries(t *testing.T) {
	t.Parallel()
	svc := &fakeExecutionService{logEntries: logBacklog(3)}
	terminal := make(chan struct{})

	stream := newTestStreamer(svc).Follow(context.Background(), "exec-1", terminal)

	var got []int64
	for entry := range stream.Entries() {
		got = append(got, entry.Offset)
		if len(got) == 3 {
			// Simulate the execution finishing after the backlog was read.
			close(terminal)
		}
	}

	checkContinuity(t, got, 3)
	if stream.Err() != nil {
		t.Errorf("Expected clean termination, got %v", stream.Err())
	}
}
