package job

import (
	"context"
	"io"
)

// ExecutionService is the remote system that runs jobs. Implementations live
// under internal/execution.
type ExecutionService interface {
	// Start begins a new execution and returns its identifier.
	Start(ctx context.Context, req *StartRequest) (string, error)

	// Status reports the current remote view of an execution.
	Status(ctx context.Context, executionID string) (*Execution, error)

	// Cancel asks the service to stop an execution. Cancelling an already
	// terminal execution is not an error.
	Cancel(ctx context.Context, executionID string) error

	// Logs returns entries with offsets strictly greater than after, in
	// offset order. limit <= 0 means no limit. An empty slice means no new
	// entries yet.
	Logs(ctx context.Context, executionID string, after int64, limit int) ([]LogEntry, error)

	// List returns known executions of the named job, most recent first.
	List(ctx context.Context, jobName string) ([]*Execution, error)
}

// ObjectStore persists configuration documents and output artifacts.
// Implementations live under internal/store.
type ObjectStore interface {
	// Get reads a whole object.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put writes a whole object.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// List returns objects under prefix in creation order, oldest first.
	List(ctx context.Context, prefix string) ([]OutputArtifact, error)

	// Open returns a reader for streaming an object's content.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// Notifier delivers outcome notifications. Implementations live under
// internal/notify. Delivery is best effort; callers treat errors as
// non-fatal.
type Notifier interface {
	Notify(ctx context.Context, n *Notification) error
}
