package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/stashbox/service/internal/config"
)

// MinioStore implements ObjectStore using a MinIO (or any S3-compatible) backend.
// To switch providers, change STORAGE_ENDPOINT and credentials — no code
// changes are needed for any S3-compatible endpoint.
type MinioStore struct {
	client     *minio.Client
	bucket     string
	publicBase string
}

// NewMinioStore creates a MinIO client, ensures the bucket exists, and
// returns a ready-to-use MinioStore. The client is read-only after
// construction and safe for concurrent use across operations.
func NewMinioStore(cfg *config.Config) (*MinioStore, error) {
	client, err := minio.New(cfg.StorageEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.StorageAccessKey, cfg.StorageSecretKey, ""),
		Secure: cfg.StorageUseSSL,
		Region: cfg.StorageRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx := context.Background()

	exists, err := client.BucketExists(ctx, cfg.StorageBucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.StorageBucket, minio.MakeBucketOptions{Region: cfg.StorageRegion}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", cfg.StorageBucket, err)
		}
		log.Printf("storage: created bucket %q", cfg.StorageBucket)
	}

	return &MinioStore{
		client:     client,
		bucket:     cfg.StorageBucket,
		publicBase: strings.TrimRight(cfg.StoragePublicBase, "/"),
	}, nil
}

// Put streams reader to the bucket under key.
func (s *MinioStore) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (*UploadInfo, error) {
	info, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("put object %q: %w", key, err)
	}
	return &UploadInfo{
		Key:      key,
		Location: s.objectURL(key),
		Size:     info.Size,
		ETag:     info.ETag,
	}, nil
}

// Get fetches the object at key. The object is stat'ed first so a missing
// key surfaces as ErrNotFound here rather than on the first body read.
func (s *MinioStore) Get(ctx context.Context, key string) (*Object, error) {
	stat, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, wrapMinioErr("stat object", key, err)
	}

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, wrapMinioErr("get object", key, err)
	}

	return &Object{
		Body:         obj,
		Key:          key,
		ContentType:  stat.ContentType,
		Size:         stat.Size,
		ETag:         stat.ETag,
		LastModified: stat.LastModified,
	}, nil
}

// PresignedGetURL produces a signed GET URL valid for expiry.
func (s *MinioStore) PresignedGetURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign object %q: %w", key, err)
	}
	return u.String(), nil
}

// Delete removes the object at key from the bucket. S3 deletes of absent
// keys succeed silently, so the key is stat'ed first — deleting an unknown
// key reports ErrNotFound instead of a silent no-op.
func (s *MinioStore) Delete(ctx context.Context, key string) error {
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		return wrapMinioErr("stat object", key, err)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %q: %w", key, err)
	}
	return nil
}

// objectURL returns the browser-accessible URL for the given key.
// For local MinIO: "http://localhost:9000/stash/reports/2026/q1.pdf"
// Behind a CDN: "https://cdn.example.com/reports/2026/q1.pdf"
func (s *MinioStore) objectURL(key string) string {
	return s.publicBase + "/" + key
}

// wrapMinioErr translates the backend's missing-key responses into ErrNotFound
// and wraps everything else with operation context.
func wrapMinioErr(op, key string, err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
		return fmt.Errorf("%s %q: %w", op, key, errors.Join(ErrNotFound, err))
	}
	return fmt.Errorf("%s %q: %w", op, key, err)
}
