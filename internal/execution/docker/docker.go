// Package docker implements the job.ExecutionService interface using the
// Docker API. Executions run as containers on the configured engine, found
// again across CLI invocations through their labels.
package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/google/uuid"

	"jobctl/internal/apperrors"
	"jobctl/internal/job"
)

// Container labels identifying executions across process restarts.
const (
	labelManaged   = "managed-by"
	managedByValue = "jobctl"
	labelExecution = "execution.id"
	labelJob       = "job.name"
	labelConfig    = "config.ref"
)

// Service implements job.ExecutionService using Docker.
type Service struct {
	client      *client.Client
	stopTimeout time.Duration
	extraHosts  []string
	cache       *containerCache
	log         *slog.Logger
}

var _ job.ExecutionService = (*Service)(nil)

// NewService connects to the Docker daemon.
func NewService(cfg ServiceConfig, log *slog.Logger) (*Service, error) {
	if log == nil {
		log = slog.Default()
	}

	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if cfg.Host != "" {
		opts = append(opts, client.WithHost(cfg.Host))
	}
	dockerClient, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}

	stopTimeout := cfg.StopTimeout
	if stopTimeout <= 0 {
		stopTimeout = 10 * time.Second
	}

	return &Service{
		client:      dockerClient,
		stopTimeout: stopTimeout,
		extraHosts:  cfg.ExtraHosts,
		cache:       newContainerCache(),
		log:         log,
	}, nil
}

// Ready checks that the Docker daemon is reachable and responsive.
func (s *Service) Ready(ctx context.Context) error {
	_, err := s.client.Ping(ctx)
	return err
}

// Close releases the client connection.
func (s *Service) Close() error {
	return s.client.Close()
}

// Start creates and starts a payload container for the request and returns
// the minted execution ID. The request's timeout is not enforced here; the
// tracker owns timeout handling.
func (s *Service) Start(ctx context.Context, req *job.StartRequest) (string, error) {
	if req.Image == "" {
		return "", fmt.Errorf("image is required")
	}
	if req.JobName == "" {
		return "", fmt.Errorf("job name is required")
	}

	executionID := uuid.NewString()

	// Detached context so an HTTP timeout on the caller side does not abort
	// a long image pull halfway.
	if err := s.pullImageIfNeeded(context.WithoutCancel(ctx), req.Image); err != nil {
		return "", fmt.Errorf("pull image %s: %w", req.Image, err)
	}

	env := make([]string, 0, len(req.Env))
	for k, v := range req.Env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}

	containerConfig := &container.Config{
		Image: req.Image,
		Env:   env,
		Labels: map[string]string{
			labelManaged:   managedByValue,
			labelExecution: executionID,
			labelJob:       req.JobName,
			labelConfig:    req.ConfigRef,
		},
	}

	hostConfig := &container.HostConfig{
		ExtraHosts: s.extraHosts,
		Resources: container.Resources{
			NanoCPUs: int64(req.CPU * 1e9),
			Memory:   int64(req.Memory) * 1024 * 1024,
		},
	}

	containerName := fmt.Sprintf("jobctl-%s", executionID)
	resp, err := s.client.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, containerName)
	if err != nil {
		return "", fmt.Errorf("create container: %w", err)
	}

	if err := s.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		s.removeContainer(ctx, resp.ID)
		return "", fmt.Errorf("start container: %w", err)
	}

	s.cache.remember(executionID, resp.ID)
	s.log.Info("Execution container started",
		"executionId", executionID, "containerId", resp.ID[:12], "image", req.Image)
	return executionID, nil
}

// Status reports the execution's current state from a container inspect.
func (s *Service) Status(ctx context.Context, executionID string) (*job.Execution, error) {
	containerID, err := s.resolve(ctx, executionID)
	if err != nil {
		return nil, err
	}

	inspect, err := s.client.ContainerInspect(ctx, containerID)
	if err != nil {
		if client.IsErrNotFound(err) {
			s.cache.forget(executionID)
			return nil, apperrors.NotFound("execution", executionID)
		}
		return nil, fmt.Errorf("inspect container: %w", err)
	}

	return executionFromInspect(executionID, inspect), nil
}

// Cancel stops the execution's container. Stopping an already exited
// container is a no-op on the daemon side, which matches the contract.
func (s *Service) Cancel(ctx context.Context, executionID string) error {
	containerID, err := s.resolve(ctx, executionID)
	if err != nil {
		return err
	}

	timeout := int(s.stopTimeout.Seconds())
	if err := s.client.ContainerStop(ctx, containerID, container.StopOptions{Timeout: &timeout}); err != nil {
		if client.IsErrNotFound(err) {
			s.cache.forget(executionID)
			return apperrors.NotFound("execution", executionID)
		}
		return fmt.Errorf("stop container: %w", err)
	}

	s.log.Info("Execution container stopped", "executionId", executionID)
	return nil
}

// Logs reads the container's full log buffer and returns the lines with
// offsets strictly greater than after, capped at limit when limit > 0.
// Offsets are 1-based line positions in the merged stdout/stderr stream,
// stable across calls because the buffer is append-only.
func (s *Service) Logs(ctx context.Context, executionID string, after int64, limit int) ([]job.LogEntry, error) {
	containerID, err := s.resolve(ctx, executionID)
	if err != nil {
		return nil, err
	}

	rc, err := s.client.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Timestamps: true,
	})
	if err != nil {
		if client.IsErrNotFound(err) {
			s.cache.forget(executionID)
			return nil, apperrors.NotFound("execution", executionID)
		}
		return nil, fmt.Errorf("read container logs: %w", err)
	}
	defer rc.Close()

	data, err := demuxLogs(rc)
	if err != nil {
		return nil, fmt.Errorf("read container logs: %w", err)
	}

	return filterEntries(parseLogLines(data), after, limit), nil
}

// filterEntries applies the after/limit read contract to a full log listing.
func filterEntries(entries []job.LogEntry, after int64, limit int) []job.LogEntry {
	out := make([]job.LogEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Offset <= after {
			continue
		}
		out = append(out, entry)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// List returns the job's executions, most recent first.
func (s *Service) List(ctx context.Context, jobName string) ([]*job.Execution, error) {
	containers, err := s.client.ContainerList(ctx, container.ListOptions{
		All: true,
		Filters: filters.NewArgs(
			filters.Arg("label", labelManaged+"="+managedByValue),
			filters.Arg("label", labelJob+"="+jobName),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}

	executions := make([]*job.Execution, 0, len(containers))
	for i := range containers {
		c := &containers[i]
		executionID := c.Labels[labelExecution]
		if executionID == "" {
			continue
		}

		inspect, err := s.client.ContainerInspect(ctx, c.ID)
		if err != nil {
			// Removed between list and inspect; skip rather than fail the listing.
			continue
		}
		s.cache.remember(executionID, c.ID)
		executions = append(executions, executionFromInspect(executionID, inspect))
	}

	sort.Slice(executions, func(i, j int) bool {
		return executions[i].SubmittedAt.After(executions[j].SubmittedAt)
	})
	return executions, nil
}

// resolve finds the container backing an execution, preferring the
// per-process cache over a label lookup.
func (s *Service) resolve(ctx context.Context, executionID string) (string, error) {
	if id, ok := s.cache.lookup(executionID); ok {
		return id, nil
	}

	containers, err := s.client.ContainerList(ctx, container.ListOptions{
		All: true,
		Filters: filters.NewArgs(
			filters.Arg("label", labelManaged+"="+managedByValue),
			filters.Arg("label", labelExecution+"="+executionID),
		),
	})
	if err != nil {
		return "", fmt.Errorf("list containers: %w", err)
	}
	if len(containers) == 0 {
		return "", apperrors.NotFound("execution", executionID)
	}

	s.cache.remember(executionID, containers[0].ID)
	return containers[0].ID, nil
}

func (s *Service) pullImageIfNeeded(ctx context.Context, imageName string) error {
	_, err := s.client.ImageInspect(ctx, imageName)
	if err == nil {
		return nil
	}

	reader, err := s.client.ImagePull(ctx, imageName, image.PullOptions{})
	if err != nil {
		return err
	}
	defer reader.Close()

	_, err = io.Copy(io.Discard, reader)
	return err
}

func (s *Service) removeContainer(ctx context.Context, containerID string) {
	timeout := int(s.stopTimeout.Seconds())
	_ = s.client.ContainerStop(ctx, containerID, container.StopOptions{Timeout: &timeout})
	_ = s.client.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true})
}

// executionFromInspect maps a container inspect onto the execution model.
func executionFromInspect(executionID string, inspect container.InspectResponse) *job.Execution {
	exec := &job.Execution{ID: executionID, State: job.StatePending}
	if inspect.Config != nil {
		exec.JobName = inspect.Config.Labels[labelJob]
		exec.ConfigRef = inspect.Config.Labels[labelConfig]
	}
	if inspect.ContainerJSONBase == nil || inspect.State == nil {
		return exec
	}

	exec.SubmittedAt = parseDockerTime(inspect.Created)
	state := inspect.State
	exec.StartedAt = parseDockerTime(state.StartedAt)

	switch {
	case state.Status == "created":
		exec.State = job.StatePending

	case state.Running:
		exec.State = job.StateRunning

	default:
		exec.EndedAt = parseDockerTime(state.FinishedAt)
		switch {
		case state.ExitCode == 0:
			exec.State = job.StateSucceeded
		case isStopExit(state):
			exec.State = job.StateCancelled
		default:
			exec.State = job.StateFailed
			if state.Error != "" {
				exec.Error = state.Error
			} else {
				exec.Error = fmt.Sprintf("payload exited with code %d", state.ExitCode)
			}
		}
	}
	return exec
}

// isStopExit reports whether an exit looks like a stop request: killed by
// SIGTERM or SIGKILL without the OOM killer being involved.
func isStopExit(state *container.State) bool {
	if state.OOMKilled {
		return false
	}
	return state.ExitCode == 137 || state.ExitCode == 143
}

// parseDockerTime parses the RFC3339Nano timestamps Docker reports. Docker's
// placeholder value parses to Go's zero time.
func parseDockerTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// demuxLogs strips the 8-byte multiplexing headers from a container log
// stream, merging stdout and stderr in frame order.
func demuxLogs(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	header := make([]byte, 8)

	for {
		if _, err := io.ReadFull(r, header); err != nil {
			if err == io.EOF {
				return buf.Bytes(), nil
			}
			return nil, err
		}

		size := int(header[4])<<24 | int(header[5])<<16 | int(header[6])<<8 | int(header[7])
		if size == 0 {
			continue
		}

		payload := make([]byte, size)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, err
		}
		buf.Write(payload)
	}
}

// parseLogLines splits a demuxed log buffer into offset-numbered entries.
// Each line carries the RFC3339Nano timestamp Docker prepends when logs are
// requested with timestamps.
func parseLogLines(data []byte) []job.LogEntry {
	var entries []job.LogEntry
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}

		entry := job.LogEntry{Offset: int64(len(entries) + 1), Text: line}
		if ts, text, ok := strings.Cut(line, " "); ok {
			if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
				entry.Timestamp = parsed
				entry.Text = text
			}
		}
		entries = append(entries, entry)
	}
	return entries
}
