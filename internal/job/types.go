package job

import (
	"fmt"
	"time"

	"jobctl/pkg/backoff"
	"jobctl/pkg/circuitbreaker"
)

// State of an execution as observed by the tracker.
type State string

// Execution states. Pending is initial; the four right-hand states are
// terminal and mutually exclusive.
const (
	StatePending   State = "Pending"
	StateRunning   State = "Running"
	StateSucceeded State = "Succeeded"
	StateFailed    State = "Failed"
	StateTimedOut  State = "TimedOut"
	StateCancelled State = "Cancelled"
)

// Terminal reports whether no further transitions can occur from s.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateTimedOut, StateCancelled:
		return true
	default:
		return false
	}
}

// Execution is one remote run of a submitted job configuration.
//
// State is mutated only by the Tracker; everything else is set once.
type Execution struct {
	ID          string
	JobName     string
	State       State
	SubmittedAt time.Time
	StartedAt   time.Time     // zero until the first Running observation
	EndedAt     time.Time     // zero until a terminal state is recorded
	Timeout     time.Duration // local wait timeout counted from submission; 0 means none
	ConfigRef   string
	Error       string // terminal failure summary, when the remote service reports one

	cancelRequested bool // remote cancel already issued for this execution
}

// NewExecution returns a freshly submitted execution in the Pending state.
func NewExecution(id, jobName, configRef string, timeout time.Duration, submittedAt time.Time) *Execution {
	return &Execution{
		ID:          id,
		JobName:     jobName,
		State:       StatePending,
		SubmittedAt: submittedAt,
		Timeout:     timeout,
		ConfigRef:   configRef,
	}
}

// Duration returns the execution's wall-clock duration. Before a terminal
// state it measures up to now; executions that never started measure from
// submission.
func (e *Execution) Duration() time.Duration {
	start := e.StartedAt
	if start.IsZero() {
		start = e.SubmittedAt
	}
	end := e.EndedAt
	if end.IsZero() {
		end = time.Now()
	}
	if end.Before(start) {
		return 0
	}
	return end.Sub(start)
}

// LogEntry is one ordered line of an execution's log stream. Offsets are
// strictly increasing and stable across reads, which is what makes gap-free
// resumption possible.
type LogEntry struct {
	Offset    int64
	Timestamp time.Time
	Text      string
}

// OutputArtifact is a stored object under a job's output prefix.
type OutputArtifact struct {
	Key       string
	Size      int64
	CreatedAt time.Time
}

// Notification carries the outcome message for one terminal execution.
// It is built once per terminal transition and never persisted.
type Notification struct {
	Outcome      State
	JobName      string
	ExecutionID  string
	Duration     time.Duration
	ArtifactRefs []string
	ErrorMessage string
}

// maxNotificationErrorLen bounds the error summary carried in a notification.
const maxNotificationErrorLen = 500

// NewNotification builds the outcome message for a terminal execution.
// Success carries the artifact reference list; failure carries an error
// summary instead.
func NewNotification(exec *Execution, artifacts []OutputArtifact) *Notification {
	n := &Notification{
		Outcome:     exec.State,
		JobName:     exec.JobName,
		ExecutionID: exec.ID,
		Duration:    exec.Duration(),
	}

	if exec.State == StateSucceeded {
		refs := make([]string, 0, len(artifacts))
		for _, a := range artifacts {
			refs = append(refs, a.Key)
		}
		n.ArtifactRefs = refs
		return n
	}

	msg := exec.Error
	if msg == "" {
		msg = fmt.Sprintf("execution finished as %s", exec.State)
	}
	if len(msg) > maxNotificationErrorLen {
		msg = msg[:maxNotificationErrorLen] + "..."
	}
	n.ErrorMessage = msg
	return n
}

// Summary returns a one-line human-readable description of the outcome.
func (n *Notification) Summary() string {
	minutes := n.Duration.Minutes()
	switch n.Outcome {
	case StateSucceeded:
		return fmt.Sprintf("Job completed: %s (%.1f minutes, %d artifacts)", n.JobName, minutes, len(n.ArtifactRefs))
	case StateTimedOut:
		return fmt.Sprintf("Job timed out: %s (%.1f minutes)", n.JobName, minutes)
	case StateCancelled:
		return fmt.Sprintf("Job cancelled: %s (%.1f minutes)", n.JobName, minutes)
	default:
		return fmt.Sprintf("Job failed: %s (%.1f minutes)", n.JobName, minutes)
	}
}

// Overrides are per-submission adjustments applied by the Submitter.
type Overrides struct {
	Env     map[string]string
	CPU     float64       // cores; 0 keeps the service default
	Memory  int           // MB; 0 keeps the service default
	Timeout time.Duration // remote-side execution timeout hint; 0 keeps the default
}

// StartRequest asks the execution service for a new run.
type StartRequest struct {
	JobName   string
	ConfigRef string
	Image     string
	Env       map[string]string
	CPU       float64
	Memory    int
	Timeout   time.Duration
}

// PollPolicy controls the tracker's polling loop. Zero values use defaults.
type PollPolicy struct {
	Interval      time.Duration  // base interval between status polls
	Backoff       backoff.Config // applied to transport errors only
	FailureBudget int            // consecutive transport failures tolerated before tracking is lost
}

func (p PollPolicy) withDefaults() PollPolicy {
	if p.Interval <= 0 {
		p.Interval = 2 * time.Second
	}
	if p.Backoff.Initial <= 0 {
		p.Backoff.Initial = time.Second
	}
	if p.Backoff.Max <= 0 {
		p.Backoff.Max = 30 * time.Second
	}
	if p.FailureBudget <= 0 {
		p.FailureBudget = 5
	}
	return p
}

// FollowPolicy controls the log follower's read loop. Zero values use defaults.
type FollowPolicy struct {
	Interval time.Duration         // delay between reads that returned no new entries
	Breaker  circuitbreaker.Config // paces reconnect attempts after repeated read failures
}

func (p FollowPolicy) withDefaults() FollowPolicy {
	if p.Interval <= 0 {
		p.Interval = time.Second
	}
	if p.Breaker.Threshold <= 0 {
		p.Breaker.Threshold = 5
	}
	if p.Breaker.Cooldown <= 0 {
		p.Breaker.Cooldown = 10 * time.Second
	}
	return p
}

// timestampLayout formats the path segment under configs/ and outputs/.
// It sorts chronologically.
const timestampLayout = "20060102-150405"
