package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"jobctl/internal/job"
)

const timeLayout = "2006-01-02 15:04:05"

// printExecution writes one execution in key: value form.
func printExecution(w io.Writer, exec *job.Execution) {
	fmt.Fprintf(w, "Execution:  %s\n", exec.ID)
	fmt.Fprintf(w, "Job:        %s\n", exec.JobName)
	fmt.Fprintf(w, "State:      %s\n", exec.State)
	fmt.Fprintf(w, "Submitted:  %s\n", formatTime(exec.SubmittedAt))
	if !exec.StartedAt.IsZero() {
		fmt.Fprintf(w, "Started:    %s\n", formatTime(exec.StartedAt))
	}
	if !exec.EndedAt.IsZero() {
		fmt.Fprintf(w, "Ended:      %s\n", formatTime(exec.EndedAt))
	}
	fmt.Fprintf(w, "Duration:   %s\n", formatDuration(exec.Duration()))
	if exec.ConfigRef != "" {
		fmt.Fprintf(w, "Config:     %s\n", exec.ConfigRef)
	}
	if exec.Error != "" {
		fmt.Fprintf(w, "Error:      %s\n", exec.Error)
	}
}

// printExecutionTable writes executions as a table, one row each.
func printExecutionTable(w io.Writer, execs []*job.Execution) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "EXECUTION ID\tSTATE\tSUBMITTED\tDURATION")
	for _, exec := range execs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			exec.ID, exec.State, formatTime(exec.SubmittedAt), formatDuration(exec.Duration()))
	}
	tw.Flush()
}

// printArtifactTable writes artifacts as a table, one row each.
func printArtifactTable(w io.Writer, artifacts []job.OutputArtifact) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tSIZE\tCREATED")
	for _, a := range artifacts {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", a.Key, formatSize(a.Size), formatTime(a.CreatedAt))
	}
	tw.Flush()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(timeLayout)
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Second).String()
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for x := n / unit; x >= unit; x /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
