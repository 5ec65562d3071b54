package storage

import (
	"context"
	"io"
	"time"
)

// ObjectStore is the contract the asset handlers depend on. The production
// implementation talks to MinIO; tests use the in-memory store.
type ObjectStore interface {
	Upload(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, objectKey string) error
	PresignedGetURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
}
