// Package backoff provides exponential backoff calculation.
package backoff

import (
	"math"
	"time"
)

const (
	// DefaultInitial is used when Config.Initial is zero.
	DefaultInitial = 100 * time.Millisecond
	// DefaultMax is used when Config.Max is zero.
	DefaultMax = 5 * time.Second
)

// Config for exponential backoff. The zero value uses defaults.
type Config struct {
	Initial time.Duration
	Max     time.Duration
}

// Delay returns the backoff delay for a given attempt. Attempt 1 returns
// the initial delay, attempt 2 doubles it, and so on, capped at Max.
// Attempts below 1 return the initial delay.
func (c Config) Delay(attempt int) time.Duration {
	initial := c.Initial
	if initial <= 0 {
		initial = DefaultInitial
	}
	limit := c.Max
	if limit <= 0 {
		limit = DefaultMax
	}
	if attempt < 1 {
		return initial
	}
	d := float64(initial) * math.Pow(2, float64(attempt-1))
	if d > float64(limit) {
		return limit
	}
	return time.Duration(d)
}
