package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioService implements ObjectStore on a single MinIO/S3 bucket.
type MinioService struct {
	Client     *minio.Client
	BucketName string
	logger     *slog.Logger
}

// NewMinioService connects to endpoint and creates bucket when missing.
func NewMinioService(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool, logger *slog.Logger) (*MinioService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		logger.Info("[MinIO] created bucket", "bucket", bucket)
	}

	logger.Info("[MinIO] connected", "endpoint", endpoint, "bucket", bucket)
	return &MinioService{
		Client:     client,
		BucketName: bucket,
		logger:     logger,
	}, nil
}

// CheckConnection is used by the health endpoint.
func (m *MinioService) CheckConnection(ctx context.Context) error {
	if m == nil || m.Client == nil {
		return fmt.Errorf("minio service not initialized")
	}
	_, err := m.Client.BucketExists(ctx, m.BucketName)
	return err
}

func (m *MinioService) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := m.Client.PutObject(ctx, m.BucketName, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return &StorageError{Op: "put", Key: key, Err: err}
	}
	return nil
}

// Get stats the object before handing it out so a missing key fails here
// instead of on the first Read.
func (m *MinioService) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := m.Client.GetObject(ctx, m.BucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, &StorageError{Op: "get", Key: key, Err: classify(err)}
	}

	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, &StorageError{Op: "get", Key: key, Err: classify(err)}
	}
	return obj, nil
}

func (m *MinioService) Sign(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := m.Client.PresignedGetObject(ctx, m.BucketName, key, ttl, nil)
	if err != nil {
		return "", &StorageError{Op: "sign", Key: key, Err: err}
	}
	return u.String(), nil
}

// Delete removes key. Used to clean up an object whose record could not be saved.
func (m *MinioService) Delete(ctx context.Context, key string) error {
	if err := m.Client.RemoveObject(ctx, m.BucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return &StorageError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

func classify(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, resp.Message)
	}
	return err
}
