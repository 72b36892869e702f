package job

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"jobctl/internal/apperrors"
	"jobctl/internal/observability"
)

// Catalog lists and downloads the artifacts an execution produced under its
// job's output prefix.
type Catalog struct {
	store   ObjectStore
	log     *slog.Logger
	metrics *observability.Metrics
}

// NewCatalog returns a catalog over store. metrics may be nil.
func NewCatalog(store ObjectStore, log *slog.Logger, metrics *observability.Metrics) *Catalog {
	if log == nil {
		log = slog.Default()
	}
	return &Catalog{store: store, log: log, metrics: metrics}
}

// outputRoot is the prefix all of jobName's artifacts live under, across
// every timestamp segment.
func outputRoot(jobName string) string {
	return fmt.Sprintf("outputs/%s/", jobName)
}

// List returns jobName's artifacts ordered by creation time, oldest first.
// A job with no artifacts yet yields an empty list, not an error.
func (c *Catalog) List(ctx context.Context, jobName string) ([]OutputArtifact, error) {
	artifacts, err := c.store.List(ctx, outputRoot(jobName))
	if err != nil {
		return nil, fmt.Errorf("list outputs of %s: %w", jobName, err)
	}
	sort.Slice(artifacts, func(i, j int) bool {
		if !artifacts[i].CreatedAt.Equal(artifacts[j].CreatedAt) {
			return artifacts[i].CreatedAt.Before(artifacts[j].CreatedAt)
		}
		return artifacts[i].Key < artifacts[j].Key
	})
	return artifacts, nil
}

// Download fetches every artifact of jobName into destination, preserving
// the path relative to the job's output root, and returns how many files
// were written. Each file is written to a temporary sibling and renamed into
// place, so readers never observe a partial file. Having no artifacts at all
// is a not-found error.
func (c *Catalog) Download(ctx context.Context, jobName, destination string) (int, error) {
	artifacts, err := c.List(ctx, jobName)
	if err != nil {
		return 0, err
	}
	if len(artifacts) == 0 {
		return 0, apperrors.NotFound("outputs", jobName)
	}

	root := outputRoot(jobName)
	count := 0
	for _, a := range artifacts {
		rel := strings.TrimPrefix(a.Key, root)
		target := filepath.Join(destination, filepath.FromSlash(rel))
		n, err := c.downloadOne(ctx, a.Key, target)
		if err != nil {
			return count, fmt.Errorf("download %s: %w", a.Key, err)
		}
		count++
		if c.metrics != nil {
			c.metrics.RecordArtifactDownloaded(ctx, n)
		}
		c.log.Debug("Artifact downloaded", "key", a.Key, "bytes", n, "path", target)
	}

	c.log.Info("Outputs downloaded",
		"jobName", jobName,
		"files", count,
		"destination", destination)
	return count, nil
}

func (c *Catalog) downloadOne(ctx context.Context, key, target string) (int64, error) {
	r, err := c.store.Open(ctx, key)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".tmp-")
	if err != nil {
		return 0, err
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	n, err := io.Copy(tmp, r)
	if err != nil {
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return 0, err
	}
	return n, nil
}
