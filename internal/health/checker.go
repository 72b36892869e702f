// Package health provides liveness and readiness checks for the debug
// listener.
package health

import (
	"context"
	"sync"
	"time"
)

// ReadinessChecker is implemented by providers that can verify their backend
// is reachable.
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}

// Status represents the health status of a component.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult contains the result of one dependency check.
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Response is the health check response.
type Response struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

// IsHealthy returns true if the overall status is healthy.
func (r *Response) IsHealthy() bool {
	return r.Status == StatusHealthy
}

// Checker probes the configured providers. Probes are cached briefly so a
// scraping monitor cannot hammer the backends.
type Checker struct {
	checks  map[string]ReadinessChecker
	timeout time.Duration

	mu        sync.RWMutex
	lastCheck time.Time
	cached    *Response
}

// NewChecker returns a checker over the named providers. Nil entries are
// skipped, so callers can pass whatever subset they actually wired.
func NewChecker(checks map[string]ReadinessChecker) *Checker {
	kept := make(map[string]ReadinessChecker, len(checks))
	for name, probe := range checks {
		if probe != nil {
			kept[name] = probe
		}
	}
	return &Checker{
		checks:  kept,
		timeout: 5 * time.Second,
	}
}

// Liveness reports whether the process is alive. It never touches external
// services.
func (c *Checker) Liveness(ctx context.Context) *Response {
	return &Response{
		Status: StatusHealthy,
	}
}

// Readiness checks every configured provider. Any unhealthy dependency makes
// the overall status unhealthy.
func (c *Checker) Readiness(ctx context.Context) *Response {
	c.mu.RLock()
	if c.cached != nil && time.Since(c.lastCheck) < time.Second {
		cached := c.cached
		c.mu.RUnlock()
		return cached
	}
	c.mu.RUnlock()

	checks := make(map[string]CheckResult, len(c.checks))
	overall := StatusHealthy
	for name, probe := range c.checks {
		result := c.check(ctx, probe)
		checks[name] = result
		if result.Status != StatusHealthy {
			overall = StatusUnhealthy
		}
	}

	response := &Response{
		Status: overall,
		Checks: checks,
	}

	c.mu.Lock()
	c.cached = response
	c.lastCheck = time.Now()
	c.mu.Unlock()

	return response
}

func (c *Checker) check(ctx context.Context, probe ReadinessChecker) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := probe.Ready(ctx); err != nil {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: err.Error(),
		}
	}
	return CheckResult{
		Status: StatusHealthy,
	}
}
