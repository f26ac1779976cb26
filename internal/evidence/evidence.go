// Package evidence resolves opaque evidence references against the
// platform's object store. The workflow only ever asks whether a reference
// exists; file content is never inspected here.
package evidence

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Checker interface {
	Exists(ctx context.Context, ref string) (bool, error)
}

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Store checks evidence references against a MinIO/S3 bucket.
type Store struct {
	client *minio.Client
	bucket string
}

func NewStore(cfg Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}

	return &Store{client: client, bucket: cfg.Bucket}, nil
}

func (s *Store) Exists(ctx context.Context, ref string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, ref, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}

		return false, fmt.Errorf("stat evidence object: %w", err)
	}

	return true, nil
}

// Audit logs any references that cannot be found. Failures here are
// informational; the progress entry has already committed.
func Audit(ctx context.Context, c Checker, projectID string, refs []string) {
	for _, ref := range refs {
		ok, err := c.Exists(ctx, ref)
		if err != nil {
			slog.Warn("evidence check failed", "project_id", projectID, "ref", ref, "error", err)
			continue
		}

		if !ok {
			slog.Warn("evidence reference not found in store", "project_id", projectID, "ref", ref)
		}
	}
}
