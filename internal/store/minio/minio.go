// Package minio implements the job.ObjectStore interface against any
// S3-compatible endpoint using the MinIO client.
package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"jobctl/internal/apperrors"
	"jobctl/internal/job"
)

// Store implements job.ObjectStore over a single bucket.
type Store struct {
	client *minio.Client
	bucket string
	region string
	log    *slog.Logger
}

var _ job.ObjectStore = (*Store)(nil)

// New builds a store client. Construction is offline; nothing is dialled
// until the first operation, so read-only commands can be wired without the
// endpoint being reachable.
func New(cfg Config, log *slog.Logger) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("object store config: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.Secure,
		Region:    cfg.Region,
		Transport: newTransport(),
	})
	if err != nil {
		return nil, fmt.Errorf("create object store client: %w", err)
	}

	return &Store{client: client, bucket: cfg.Bucket, region: cfg.Region, log: log}, nil
}

// EnsureBucket creates the configured bucket if it does not exist yet.
// Write paths call it once before their first Put.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("ensure bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("ensure bucket %s: %w", s.bucket, err)
	}
	s.log.Info("Bucket created", "bucket", s.bucket)
	return nil
}

// Ready probes the endpoint with a bucket lookup.
func (s *Store) Ready(ctx context.Context) error {
	if _, err := s.client.BucketExists(ctx, s.bucket); err != nil {
		return fmt.Errorf("object store unreachable: %w", err)
	}
	return nil
}

// Get reads the object at key in full.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer obj.Close()

	// GetObject is lazy; missing objects surface on the first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, translateErr("get object", key, err)
	}
	return data, nil
}

// Put writes data at key, replacing any existing object.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

// List returns objects under prefix in creation order, oldest first.
func (s *Store) List(ctx context.Context, prefix string) ([]job.OutputArtifact, error) {
	var artifacts []job.OutputArtifact
	opts := minio.ListObjectsOptions{Prefix: prefix, Recursive: true}
	for obj := range s.client.ListObjects(ctx, s.bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects under %s: %w", prefix, obj.Err)
		}
		artifacts = append(artifacts, job.OutputArtifact{
			Key:       obj.Key,
			Size:      obj.Size,
			CreatedAt: obj.LastModified,
		})
	}

	sort.Slice(artifacts, func(i, j int) bool {
		if !artifacts[i].CreatedAt.Equal(artifacts[j].CreatedAt) {
			return artifacts[i].CreatedAt.Before(artifacts[j].CreatedAt)
		}
		return artifacts[i].Key < artifacts[j].Key
	})
	return artifacts, nil
}

// Open returns a streaming reader over the object at key.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("open object %s: %w", key, err)
	}
	// Stat forces the request so a missing object fails here, not mid-stream.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, translateErr("open object", key, err)
	}
	return obj, nil
}

// translateErr maps missing-object responses onto the error taxonomy so
// callers can test with errors.Is instead of inspecting transport details.
func translateErr(op, key string, err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return apperrors.NotFound("object", key)
	}
	return fmt.Errorf("%s %s: %w", op, key, err)
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
