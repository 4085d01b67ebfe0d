package media

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"videotube/internal/config"
	"videotube/internal/observability"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore keeps objects in one MinIO (or S3 compatible) bucket.
type MinioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinioStore connects to the configured endpoint and makes sure the bucket exists.
func NewMinioStore(ctx context.Context, cfg *config.Config) (*MinioStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	publicURL := strings.TrimRight(cfg.MinioPublicURL, "/")
	if publicURL == "" {
		scheme := "http"
		if cfg.MinioUseSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + cfg.MinioEndpoint
	}

	s := &MinioStore{client: client, bucket: cfg.MinioBucket, publicURL: publicURL}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MinioStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	slog.InfoContext(ctx, "created media bucket", slog.String("bucket", s.bucket))
	return nil
}

// Upload implements Store.
func (s *MinioStore) Upload(ctx context.Context, obj Object) (Ref, error) {
	if obj.Body == nil || obj.Size == 0 {
		return Ref{}, ErrEmptyObject
	}
	name := ObjectName(obj.Folder, obj.Filename)
	ctx, span := observability.TraceClientCall(ctx, "minio", "put_object")
	defer span.End()
	_, err := s.client.PutObject(ctx, s.bucket, name, obj.Body, obj.Size, minio.PutObjectOptions{
		ContentType: obj.ContentType,
	})
	if err != nil {
		observability.RecordErrorInContext(ctx, err)
		return Ref{}, fmt.Errorf("put object %s: %w", name, err)
	}
	return Ref{URL: s.publicURL + "/" + s.bucket + "/" + name, Handle: name}, nil
}

// Delete implements Store. Removing a missing object succeeds.
func (s *MinioStore) Delete(ctx context.Context, handle string) error {
	ctx, span := observability.TraceClientCall(ctx, "minio", "remove_object")
	defer span.End()
	if err := s.client.RemoveObject(ctx, s.bucket, handle, minio.RemoveObjectOptions{}); err != nil {
		observability.RecordErrorInContext(ctx, err)
		return fmt.Errorf("remove object %s: %w", handle, err)
	}
	return nil
}

// Ping reports whether the bucket is reachable. Used by the readiness probe.
func (s *MinioStore) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucket)
	return err
}
