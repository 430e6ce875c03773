// Package storage defines the interface for object storage operations.
// Swap implementations by changing the concrete type injected at startup —
// the MinIO implementation works with any S3-compatible provider (MinIO, AWS S3, DigitalOcean Spaces).
package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/stashbox/service/internal/config"
)

// ErrDriverUnavailable is returned by New when the configured storage driver
// does not select the S3 backend. Callers must treat this as a startup
// configuration error; no operations are possible without a constructed store.
var ErrDriverUnavailable = errors.New("storage driver unavailable")

// ErrNotFound is returned when the requested key does not exist in the bucket.
var ErrNotFound = errors.New("object not found")

// UploadInfo describes a completed upload.
type UploadInfo struct {
	Key      string
	Location string // browser-accessible URL for the key
	Size     int64
	ETag     string
}

// Object is the backend-native representation of a fetched object:
// its body stream plus the metadata the backend reports. The caller
// owns Body and must Close it.
type Object struct {
	Body         io.ReadCloser
	Key          string
	ContentType  string
	Size         int64
	ETag         string
	LastModified time.Time
}

// ObjectStore is the interface for uploading, retrieving and deleting objects.
type ObjectStore interface {
	// Put streams data to the store under the given key. size must be the
	// exact byte count (pass -1 only if the size is genuinely unknown —
	// the client will buffer it).
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (*UploadInfo, error)
	// Get fetches the object at key, returning its body stream and metadata.
	Get(ctx context.Context, key string) (*Object, error)
	// PresignedGetURL produces a time-limited signed download URL for key
	// without transferring the body.
	PresignedGetURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	// Delete removes an object identified by key.
	Delete(ctx context.Context, key string) error
}

// New constructs the object store selected by cfg.StorageDriver.
// A driver other than "s3" yields ErrDriverUnavailable so the process
// fails fast at startup instead of dereferencing an absent client later.
func New(cfg *config.Config) (ObjectStore, error) {
	if cfg.StorageDriver != "s3" {
		return nil, ErrDriverUnavailable
	}
	store, err := NewMinioStore(cfg)
	if err != nil {
		return nil, err
	}
	return store, nil
}
