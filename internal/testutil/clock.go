package testutil

import (
	"context"
	"sync"
	"time"
)

// FakeClock is a manually controlled clock for driving poll loops in tests.
// Sleep advances the clock by the requested duration and returns
// immediately, so loops that would take minutes of wall time run in
// microseconds while still observing deadlines correctly.
//
// FakeClock satisfies any interface of the shape {Now() time.Time;
// Sleep(context.Context, time.Duration) error}.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps int
}

// NewFakeClock returns a clock frozen at start.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleep advances the clock by d without blocking. A done context wins over
// the advance, mirroring a real interruptible sleep.
func (c *FakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if d > 0 {
		c.now = c.now.Add(d)
	}
	c.sleeps++
	return nil
}

// Advance moves the clock forward by d without counting as a sleep.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Sleeps reports how many times Sleep has been called.
func (c *FakeClock) Sleeps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sleeps
}
