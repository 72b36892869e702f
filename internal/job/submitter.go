package job

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"jobctl/internal/apperrors"
	"jobctl/internal/observability"
)

// SubmitterConfig supplies the environment-independent parts of a start
// request.
type SubmitterConfig struct {
	// Image is the container image executions run.
	Image string
}

// Submitter requests new executions from the execution service. A rejected
// submission is fatal and never retried locally.
type Submitter struct {
	svc     ExecutionService
	cfg     SubmitterConfig
	clock   Clock
	log     *slog.Logger
	metrics *observability.Metrics
}

// NewSubmitter returns a submitter backed by svc. metrics may be nil.
func NewSubmitter(svc ExecutionService, cfg SubmitterConfig, clock Clock, log *slog.Logger, metrics *observability.Metrics) *Submitter {
	if clock == nil {
		clock = RealClock{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Submitter{svc: svc, cfg: cfg, clock: clock, log: log, metrics: metrics}
}

// Submit starts a new execution of name bound to the resolved configuration
// at resolvedRef and returns its record in the Pending state. It does not
// block until the execution is running.
func (s *Submitter) Submit(ctx context.Context, resolvedRef, name string, ov Overrides) (*Execution, error) {
	now := s.clock.Now()

	env := make(map[string]string, len(ov.Env)+3)
	for k, v := range ov.Env {
		env[k] = v
	}
	env["CONFIG_PATH"] = resolvedRef
	env["JOB_NAME"] = name
	env["OUTPUT_PREFIX"] = outputPrefix(name, resolvedRef, now)

	id, err := s.svc.Start(ctx, &StartRequest{
		JobName:   name,
		ConfigRef: resolvedRef,
		Image:     s.cfg.Image,
		Env:       env,
		CPU:       ov.CPU,
		Memory:    ov.Memory,
		Timeout:   ov.Timeout,
	})
	if err != nil {
		return nil, apperrors.Submission("start execution", err)
	}

	if s.metrics != nil {
		s.metrics.RecordSubmission(ctx, name)
	}
	s.log.Info("Execution submitted",
		"jobName", name,
		"executionId", id,
		"configRef", resolvedRef)
	return NewExecution(id, name, resolvedRef, ov.Timeout, now), nil
}

// outputPrefix derives the artifact prefix for an execution. The timestamp
// segment of the resolved config reference is reused when present so the
// config and its outputs share one segment; otherwise a fresh timestamp is
// minted.
func outputPrefix(name, resolvedRef string, now time.Time) string {
	ts := now.UTC().Format(timestampLayout)
	parts := strings.Split(resolvedRef, "/")
	if len(parts) == 4 && parts[0] == "configs" {
		if _, err := time.Parse(timestampLayout, parts[2]); err == nil {
			ts = parts[2]
		}
	}
	return fmt.Sprintf("outputs/%s/%s/", name, ts)
}
