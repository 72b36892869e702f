// Package testutil provides fake time and polling helpers for tests that
// drive asynchronous flows.
package testutil

import (
	"testing"
	"time"
)

type waitOptions struct {
	timeout  time.Duration
	interval time.Duration
}

// WaitOption adjusts how long and how often WaitFor polls.
type WaitOption func(*waitOptions)

// WithTimeout bounds the total wait (default 30s).
func WithTimeout(d time.Duration) WaitOption {
	return func(o *waitOptions) { o.timeout = d }
}

// WithInterval sets the polling interval (default 100ms).
func WithInterval(d time.Duration) WaitOption {
	return func(o *waitOptions) { o.interval = d }
}

// WaitFor polls condition until it returns true or the timeout elapses.
// The condition is evaluated one final time at the deadline so a change
// that lands between polls is not missed.
func WaitFor(tb testing.TB, condition func() bool, opts ...WaitOption) bool {
	tb.Helper()

	o := waitOptions{timeout: 30 * time.Second, interval: 100 * time.Millisecond}
	for _, opt := range opts {
		opt(&o)
	}

	timeout := time.NewTimer(o.timeout)
	defer timeout.Stop()
	tick := time.NewTicker(o.interval)
	defer tick.Stop()

	for {
		if condition() {
			return true
		}
		select {
		case <-timeout.C:
			return condition()
		case <-tick.C:
		}
	}
}

// MustWaitFor is WaitFor that fails the test on timeout.
func MustWaitFor(tb testing.TB, condition func() bool, opts ...WaitOption) {
	tb.Helper()
	if !WaitFor(tb, condition, opts...) {
		tb.Fatal("Timed out waiting for condition")
	}
}
