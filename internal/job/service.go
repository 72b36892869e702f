package job

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"jobctl/internal/apperrors"
	"jobctl/internal/observability"
)

// notifyTimeout bounds notification delivery when the caller's context is
// already cancelled; the outcome message should still go out.
const notifyTimeout = 10 * time.Second

// ServiceConfig carries the per-installation settings the lifecycle
// components need.
type ServiceConfig struct {
	JobName    string
	ServiceURL string
	Image      string
	Poll       PollPolicy
	Follow     FollowPolicy
}

// Service wires the lifecycle components into the complete submit flow:
// resolve the configuration, start an execution, track it to a terminal
// state, and dispatch the outcome notification. It also fronts the
// read-side operations the CLI exposes.
//
// The Service is stateless between calls - all execution state lives in the
// remote service and the object store, so separate invocations (or separate
// processes) can query and cancel each other's executions.
type Service struct {
	resolver   *Resolver
	submitter  *Submitter
	tracker    *Tracker
	streamer   *Streamer
	catalog    *Catalog
	dispatcher *Dispatcher

	svc   ExecutionService
	store ObjectStore
	cfg   ServiceConfig
	clock Clock
	log   *slog.Logger
}

// NewService builds the component graph over the given providers. notifier
// and metrics may be nil; clock nil means the wall clock.
func NewService(svc ExecutionService, store ObjectStore, notifier Notifier, cfg ServiceConfig, clock Clock, log *slog.Logger, metrics *observability.Metrics) *Service {
	if clock == nil {
		clock = RealClock{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		resolver: NewResolver(store, ResolverConfig{
			JobName:    cfg.JobName,
			ServiceURL: cfg.ServiceURL,
		}, clock, log),
		submitter:  NewSubmitter(svc, SubmitterConfig{Image: cfg.Image}, clock, log, metrics),
		tracker:    NewTracker(svc, cfg.Poll, clock, log, metrics),
		streamer:   NewStreamer(svc, cfg.Follow, clock, log, metrics),
		catalog:    NewCatalog(store, log, metrics),
		dispatcher: NewDispatcher(notifier, log, metrics),
		svc:        svc,
		store:      store,
		cfg:        cfg,
		clock:      clock,
		log:        log,
	}
}

// RunOptions parameterize one submission.
type RunOptions struct {
	// ConfigRef is the store reference of the source configuration.
	ConfigRef string

	// Name overrides the configured job name for this submission.
	Name string

	// Wait tracks the execution to a terminal state before returning.
	Wait bool

	// Timeout bounds the wait; 0 means unbounded. Ignored unless Wait is
	// set.
	Timeout time.Duration

	// Overrides are forwarded to the execution service.
	Overrides Overrides
}

// RunResult reports what a Run did.
type RunResult struct {
	Execution   *Execution
	ResolvedRef string

	// Outcome is the terminal state reached; empty when Wait was not
	// requested or tracking was lost.
	Outcome State
}

// Run resolves, submits, and optionally waits. With Wait set it blocks until
// the execution finishes, times out, or ctx is cancelled, then dispatches
// the outcome notification; the returned error classifies any non-success
// outcome. Without Wait it returns as soon as the execution is started.
func (s *Service) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	name := opts.Name
	if name == "" {
		name = s.cfg.JobName
	}

	ref, err := s.resolver.Resolve(ctx, opts.ConfigRef)
	if err != nil {
		return nil, err
	}

	ov := opts.Overrides
	ov.Timeout = opts.Timeout
	exec, err := s.submitter.Submit(ctx, ref, name, ov)
	if err != nil {
		return nil, err
	}

	result := &RunResult{Execution: exec, ResolvedRef: ref}
	if !opts.Wait {
		return result, nil
	}

	state, waitErr := s.tracker.Wait(ctx, exec)
	if exec.State.Terminal() {
		result.Outcome = state
		s.notify(exec)
	}
	return result, waitErr
}

// notify dispatches the outcome notification on its own deadline so a
// cancelled caller context cannot suppress it.
func (s *Service) notify(exec *Execution) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	artifacts, err := s.catalog.List(ctx, exec.JobName)
	if err != nil {
		s.log.Warn("Listing outputs for notification failed",
			"jobName", exec.JobName,
			"error", err)
		artifacts = nil
	}
	if err := s.dispatcher.Dispatch(ctx, exec, artifacts); err != nil {
		s.log.Warn("Notification dispatch refused", "error", err)
	}
}

// UploadConfig stores a local configuration file under the configs prefix
// and returns its reference, so submit can accept plain files.
func (s *Service) UploadConfig(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read config file: %w", err)
	}
	ref := fmt.Sprintf("configs/%s/%s/source.yaml",
		s.cfg.JobName, s.clock.Now().UTC().Format(timestampLayout))
	if err := s.store.Put(ctx, ref, data, "application/yaml"); err != nil {
		return "", fmt.Errorf("upload config %s: %w", ref, err)
	}
	s.log.Info("Config uploaded", "path", path, "ref", ref)
	return ref, nil
}

// Status reports the remote state of an execution; with an empty id it
// reports the most recent execution of the configured job.
func (s *Service) Status(ctx context.Context, executionID string) (*Execution, error) {
	if executionID == "" {
		return s.Latest(ctx)
	}
	return s.tracker.Status(ctx, executionID)
}

// Latest returns the most recently submitted execution of the configured
// job.
func (s *Service) Latest(ctx context.Context) (*Execution, error) {
	execs, err := s.svc.List(ctx, s.cfg.JobName)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	if len(execs) == 0 {
		return nil, apperrors.NotFound("execution", s.cfg.JobName)
	}
	return execs[0], nil
}

// List returns up to limit executions of the configured job, most recent
// first. limit <= 0 returns all of them.
func (s *Service) List(ctx context.Context, limit int) ([]*Execution, error) {
	execs, err := s.svc.List(ctx, s.cfg.JobName)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	if limit > 0 && len(execs) > limit {
		execs = execs[:limit]
	}
	return execs, nil
}

// Logs returns the last maxLines log entries of an execution, defaulting to
// the latest execution when id is empty.
func (s *Service) Logs(ctx context.Context, executionID string, maxLines int) ([]LogEntry, error) {
	exec, err := s.Status(ctx, executionID)
	if err != nil {
		return nil, err
	}
	return s.streamer.Tail(ctx, exec.ID, maxLines)
}

// FollowLogs streams an execution's log until it finishes or ctx is
// cancelled. A watcher goroutine observes the execution's state and signals
// the follower to drain once it turns terminal; interrupting the follow
// never cancels the remote execution.
func (s *Service) FollowLogs(ctx context.Context, executionID string) (*Stream, error) {
	exec, err := s.Status(ctx, executionID)
	if err != nil {
		return nil, err
	}

	terminal := make(chan struct{})
	if exec.State.Terminal() {
		close(terminal)
		return s.streamer.Follow(ctx, exec.ID, terminal), nil
	}

	go func() {
		defer close(terminal)
		if _, err := s.tracker.Watch(ctx, exec); err != nil && ctx.Err() == nil {
			s.log.Warn("Stopped tracking while following logs",
				"executionId", exec.ID,
				"error", err)
		}
	}()
	return s.streamer.Follow(ctx, exec.ID, terminal), nil
}

// Outputs lists the artifacts of jobName, defaulting to the configured job.
func (s *Service) Outputs(ctx context.Context, jobName string) ([]OutputArtifact, error) {
	if jobName == "" {
		jobName = s.cfg.JobName
	}
	return s.catalog.List(ctx, jobName)
}

// Download fetches the artifacts of jobName into destination, defaulting to
// the configured job.
func (s *Service) Download(ctx context.Context, jobName, destination string) (int, error) {
	if jobName == "" {
		jobName = s.cfg.JobName
	}
	return s.catalog.Download(ctx, jobName, destination)
}

// DispatchStats exposes the dispatcher's counters, mainly for the submit
// flow's final log line.
func (s *Service) DispatchStats() DispatchStats {
	return s.dispatcher.Stats()
}
