package objectstore

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/open-depot/archive-api/pkg/config"
)

// NewClient returns a configured S3-compatible object store client.
func NewClient(cfg config.ObjectStoreConfig) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect object store: %w", err)
	}
	return client, nil
}

// ContentStore streams archived file payloads by storage key.
type ContentStore struct {
	client *minio.Client
	bucket string
}

// NewContentStore constructs a content store bound to one bucket.
func NewContentStore(client *minio.Client, bucket string) *ContentStore {
	return &ContentStore{client: client, bucket: bucket}
}

// Open returns a reader over the object stored under key.
func (s *ContentStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("open object %s: %w", key, err)
	}
	return obj, nil
}
