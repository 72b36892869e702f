package job

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"jobctl/internal/apperrors"
)

// fakeExecutionService scripts the remote service. Status replies are
// consumed in order with the last one repeating; log entries are served from
// a fixed backlog honoring the after/limit contract, with failures injected
// by call number.
type fakeExecutionService struct {
	mu sync.Mutex

	startID  string
	startErr error
	starts   []*StartRequest

	statuses    []statusReply
	statusCalls int

	cancelErr error
	cancels   []string

	logEntries  []LogEntry
	logMaxBatch int          // caps entries per Logs call; 0 means no cap
	logFailOn   map[int]bool // 1-based Logs call numbers that fail
	logErr      error        // unconditional Logs failure when set
	logCalls    int

	listExecs []*Execution
	listErr   error
}

type statusReply struct {
	exec *Execution
	err  error
}

var _ ExecutionService = (*fakeExecutionService)(nil)

// remote builds the service-side view of an execution for status scripts.
func remote(id string, state State) *Execution {
	return &Execution{ID: id, JobName: "seo-dataset-v1", State: state}
}

func (f *fakeExecutionService) Start(ctx context.Context, req *StartRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, req)
	if f.startErr != nil {
		return "", f.startErr
	}
	if f.startID == "" {
		return "exec-1", nil
	}
	return f.startID, nil
}

func (f *fakeExecutionService) Status(ctx context.Context, executionID string) (*Execution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.statuses) == 0 {
		f.statusCalls++
		return nil, apperrors.NotFound("execution", executionID)
	}
	i := f.statusCalls
	if i >= len(f.statuses) {
		i = len(f.statuses) - 1
	}
	f.statusCalls++
	reply := f.statuses[i]
	if reply.err != nil {
		return nil, reply.err
	}
	cp := *reply.exec
	return &cp, nil
}

func (f *fakeExecutionService) Cancel(ctx context.Context, executionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels = append(f.cancels, executionID)
	return f.cancelErr
}

func (f *fakeExecutionService) Logs(ctx context.Context, executionID string, after int64, limit int) ([]LogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logCalls++
	if f.logErr != nil {
		return nil, f.logErr
	}
	if f.logFailOn[f.logCalls] {
		return nil, io.ErrUnexpectedEOF
	}
	batch := limit
	if f.logMaxBatch > 0 && (batch <= 0 || f.logMaxBatch < batch) {
		batch = f.logMaxBatch
	}
	var out []LogEntry
	for _, e := range f.logEntries {
		if e.Offset <= after {
			continue
		}
		out = append(out, e)
		if batch > 0 && len(out) >= batch {
			break
		}
	}
	return out, nil
}

func (f *fakeExecutionService) List(ctx context.Context, jobName string) ([]*Execution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listExecs, nil
}

func (f *fakeExecutionService) statusCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls
}

func (f *fakeExecutionService) cancelCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cancels)
}

func (f *fakeExecutionService) logCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logCalls
}

// memStore is an in-memory ObjectStore. Creation times are assigned in put
// order; List returns entries in arbitrary order so callers must sort.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	created map[string]time.Time
	seq     int

	gets, puts int
	getErr     error
	putErr     error
	listErr    error
}

var _ ObjectStore = (*memStore)(nil)

var memStoreEpoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newMemStore() *memStore {
	return &memStore{
		objects: make(map[string][]byte),
		created: make(map[string]time.Time),
	}
}

func (s *memStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.getErr != nil {
		return nil, s.getErr
	}
	data, ok := s.objects[key]
	if !ok {
		return nil, apperrors.NotFound("object", key)
	}
	return bytes.Clone(data), nil
}

func (s *memStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.putErr != nil {
		return s.putErr
	}
	if _, exists := s.objects[key]; !exists {
		s.created[key] = memStoreEpoch.Add(time.Duration(s.seq) * time.Second)
		s.seq++
	}
	s.objects[key] = bytes.Clone(data)
	return nil
}

func (s *memStore) List(ctx context.Context, prefix string) ([]OutputArtifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []OutputArtifact
	for key, data := range s.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		out = append(out, OutputArtifact{
			Key:       key,
			Size:      int64(len(data)),
			CreatedAt: s.created[key],
		})
	}
	return out, nil
}

func (s *memStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	data, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memStore) getCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets
}

func (s *memStore) putCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

// captureNotifier records delivered notifications, failing every delivery
// when err is set.
type captureNotifier struct {
	mu   sync.Mutex
	sent []*Notification
	err  error
}

var _ Notifier = (*captureNotifier)(nil)

func (n *captureNotifier) Notify(ctx context.Context, notif *Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, notif)
	return nil
}

func (n *captureNotifier) sentCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func (n *captureNotifier) last() *Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return nil
	}
	return n.sent[len(n.sent)-1]
}
