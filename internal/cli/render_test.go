package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"jobctl/internal/job"
)

func TestFormatSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		n    int64
		want string
	}{
		{name: "zero", n: 0, want: "0 B"},
		{name: "bytes", n: 512, want: "512 B"},
		{name: "kibibytes", n: 2048, want: "2.0 KiB"},
		{name: "fractional", n: 1536, want: "1.5 KiB"},
		{name: "mebibytes", n: 5 * 1024 * 1024, want: "5.0 MiB"},
		{name: "gibibytes", n: 3 * 1024 * 1024 * 1024, want: "3.0 GiB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := formatSize(tt.n); got != tt.want {
				t.Errorf("Expected %q for %d bytes, got %q", tt.want, tt.n, got)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{name: "zero", d: 0, want: "0s"},
		{name: "sub-second rounds", d: 1500 * time.Millisecond, want: "2s"},
		{name: "minutes", d: 90 * time.Second, want: "1m30s"},
		{name: "hours", d: 2*time.Hour + 15*time.Minute, want: "2h15m0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := formatDuration(tt.d); got != tt.want {
				t.Errorf("Expected %q for %s, got %q", tt.want, tt.d, got)
			}
		})
	}
}

func TestFormatTime(t *testing.T) {
	t.Parallel()

	if got := formatTime(time.Time{}); got != "-" {
		t.Errorf("Expected dash for zero time, got %q", got)
	}

	ts := time.Date(2025, 6, 1, 12, 0, 5, 0, time.UTC)
	if got := formatTime(ts); got != "2025-06-01 12:00:05" {
		t.Errorf("Expected formatted timestamp, got %q", got)
	}
}

func TestPrintExecution(t *testing.T) {
	t.Parallel()

	submitted := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	exec := &job.Execution{
		ID:          "exec-20250601-120000",
		JobName:     "seo-dataset-v1",
		State:       job.StateSucceeded,
		SubmittedAt: submitted,
		StartedAt:   submitted.Add(5 * time.Second),
		EndedAt:     submitted.Add(10 * time.Minute),
		ConfigRef:   "configs/seo-dataset-v1/20250601-120000/config.yaml",
	}

	var buf bytes.Buffer
	printExecution(&buf, exec)
	out := buf.String()

	for _, want := range []string{
		"Execution:  exec-20250601-120000",
		"Job:        seo-dataset-v1",
		"State:      Succeeded",
		"Submitted:  2025-06-01 12:00:00",
		"Started:    2025-06-01 12:00:05",
		"Ended:      2025-06-01 12:10:00",
		"Duration:   9m55s",
		"Config:     configs/seo-dataset-v1/20250601-120000/config.yaml",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Error:") {
		t.Errorf("Expected no error line for a succeeded execution, got:\n%s", out)
	}
}

func TestPrintExecution_PendingOmitsOptionalLines(t *testing.T) {
	t.Parallel()

	exec := &job.Execution{
		ID:          "exec-20250601-130000",
		JobName:     "seo-dataset-v1",
		State:       job.StatePending,
		SubmittedAt: time.Now(),
	}

	var buf bytes.Buffer
	printExecution(&buf, exec)
	out := buf.String()

	if strings.Contains(out, "Started:") {
		t.Errorf("Expected no started line before the first running observation, got:\n%s", out)
	}
	if strings.Contains(out, "Ended:") {
		t.Errorf("Expected no ended line for a pending execution, got:\n%s", out)
	}
	if !strings.Contains(out, "State:      Pending") {
		t.Errorf("Expected pending state line, got:\n%s", out)
	}
}

func TestPrintExecution_FailedShowsError(t *testing.T) {
	t.Parallel()

	submitted := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	exec := &job.Execution{
		ID:          "exec-20250601-140000",
		JobName:     "seo-dataset-v1",
		State:       job.StateFailed,
		SubmittedAt: submitted,
		EndedAt:     submitted.Add(time.Minute),
		Error:       "payload exited with code 3",
	}

	var buf bytes.Buffer
	printExecution(&buf, exec)

	if !strings.Contains(buf.String(), "Error:      payload exited with code 3") {
		t.Errorf("Expected error line, got:\n%s", buf.String())
	}
}

func TestPrintExecutionTable(t *testing.T) {
	t.Parallel()

	submitted := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	execs := []*job.Execution{
		{
			ID:          "exec-20250601-130000",
			State:       job.StateRunning,
			SubmittedAt: submitted.Add(time.Hour),
			StartedAt:   submitted.Add(time.Hour),
			EndedAt:     submitted.Add(time.Hour + 30*time.Second),
		},
		{
			ID:          "exec-20250601-120000",
			State:       job.StateSucceeded,
			SubmittedAt: submitted,
			StartedAt:   submitted,
			EndedAt:     submitted.Add(10 * time.Minute),
		},
	}

	var buf bytes.Buffer
	printExecutionTable(&buf, execs)
	out := buf.String()

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d lines:\n%s", len(lines), out)
	}
	for _, want := range []string{"EXECUTION ID", "STATE", "SUBMITTED", "DURATION"} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("Expected header to contain %q, got %q", want, lines[0])
		}
	}
	if !strings.Contains(lines[1], "exec-20250601-130000") || !strings.Contains(lines[1], "Running") {
		t.Errorf("Expected first row to show the running execution, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "10m0s") {
		t.Errorf("Expected second row to show the duration, got %q", lines[2])
	}
}

func TestPrintArtifactTable(t *testing.T) {
	t.Parallel()

	artifacts := []job.OutputArtifact{
		{
			Key:       "outputs/seo-dataset-v1/20250601-120000/dataset.jsonl",
			Size:      1536,
			CreatedAt: time.Date(2025, 6, 1, 12, 10, 0, 0, time.UTC),
		},
		{
			Key:       "outputs/seo-dataset-v1/20250601-120000/topic-graph.jsonl",
			Size:      300,
			CreatedAt: time.Date(2025, 6, 1, 12, 9, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	printArtifactTable(&buf, artifacts)
	out := buf.String()

	for _, want := range []string{
		"KEY", "SIZE", "CREATED",
		"outputs/seo-dataset-v1/20250601-120000/dataset.jsonl",
		"1.5 KiB",
		"300 B",
		"2025-06-01 12:10:00",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected table to contain %q, got:\n%s", want, out)
		}
	}
}
