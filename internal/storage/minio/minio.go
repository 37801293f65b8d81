package minio

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"projectboard/internal/config"
)

// BlobStore keeps asset file contents; metadata lives in postgres.
type BlobStore struct {
	client *minio.Client
	bucket string
}

func New(ctx context.Context, cfg *config.Config) (*BlobStore, error) {
	const op = "storage.minio.New"

	client, err := minio.New(cfg.Minio.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Minio.AccessKey, cfg.Minio.SecretKey, ""),
		Secure: cfg.Minio.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s := &BlobStore{
		client: client,
		bucket: cfg.Minio.Bucket,
	}

	if err := s.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s, nil
}

func (s *BlobStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}

	if !exists {
		return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	}

	return nil
}

func (s *BlobStore) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	const op = "storage.minio.Upload"

	_, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *BlobStore) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	const op = "storage.minio.Download"

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return obj, nil
}

func (s *BlobStore) Delete(ctx context.Context, key string) error {
	const op = "storage.minio.Delete"

	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
