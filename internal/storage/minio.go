package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/newsflow/backend/internal/config"
	"github.com/newsflow/backend/pkg/logger"
)

type MinIOStore struct {
	client *minio.Client
	bucket string
}

var _ ObjectStore = (*MinIOStore)(nil)

func NewMinIOStore(cfg config.MinIOConfig) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	return &MinIOStore{client: client, bucket: cfg.Bucket}, nil
}

func (m *MinIOStore) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed creating bucket %s: %w", m.bucket, err)
	}
	return nil
}

func (m *MinIOStore) Upload(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, objectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		logger.Error("minio_upload_failed", err, map[string]interface{}{
			"object_key":   objectKey,
			"size":         size,
			"content_type": contentType,
			"bucket":       m.bucket,
		})
	} else {
		logger.Info("minio_upload_success", map[string]interface{}{
			"object_key":   objectKey,
			"size":         size,
			"content_type": contentType,
			"bucket":       m.bucket,
		})
	}
	return err
}

func (m *MinIOStore) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		logger.Error("minio_download_failed", err, map[string]interface{}{
			"object_key": objectKey,
			"bucket":     m.bucket,
		})
		return nil, err
	}
	if _, err := obj.Stat(); err != nil {
		logger.Error("minio_download_stat_failed", err, map[string]interface{}{
			"object_key": objectKey,
			"bucket":     m.bucket,
		})
		return nil, err
	}
	return obj, nil
}

func (m *MinIOStore) Delete(ctx context.Context, objectKey string) error {
	err := m.client.RemoveObject(ctx, m.bucket, objectKey, minio.RemoveObjectOptions{})
	if err != nil {
		logger.Error("minio_delete_failed", err, map[string]interface{}{
			"object_key": objectKey,
			"bucket":     m.bucket,
		})
	} else {
		logger.Info("minio_delete_success", map[string]interface{}{
			"object_key": objectKey,
			"bucket":     m.bucket,
		})
	}
	return err
}

func (m *MinIOStore) PresignedGetURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	urlValue, err := m.client.PresignedGetObject(ctx, m.bucket, objectKey, expiry, nil)
	if err != nil {
		return "", err
	}
	return urlValue.String(), nil
}
