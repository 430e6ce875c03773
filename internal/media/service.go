// Package media implements the object-access operations: upload, fetch,
// fetch-as-base64, presign and delete, all against a single configured bucket.
package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/stashbox/service/internal/fileinput"
	"github.com/stashbox/service/internal/notify"
	"github.com/stashbox/service/internal/storage"
)

// Upload describes a completed upload.
type Upload struct {
	Key      string `json:"key"`
	Location string `json:"location"`
	Size     int64  `json:"size"`
	ETag     string `json:"etag"`
}

// metadataStore records which objects have been uploaded. Implemented by
// *Repository; kept as an interface so service tests can substitute a mock.
type metadataStore interface {
	SaveObject(ctx context.Context, rec *ObjectRecord) error
	DeleteObject(ctx context.Context, key string) error
	ListObjects(ctx context.Context, limit, offset int) ([]ObjectRecord, error)
}

// Service contains the business logic for object access. The store handle
// is read-only after construction; parallel operations are independent and
// rely entirely on the backend's consistency guarantees — no client-side
// locking, caching or retries.
type Service struct {
	store      storage.ObjectStore
	meta       metadataStore
	rec        notify.Recorder
	presignTTL time.Duration
}

// NewService creates a media Service. presignTTL is the presigned-URL
// lifetime applied when the caller does not pass an explicit one.
func NewService(store storage.ObjectStore, meta metadataStore, rec notify.Recorder, presignTTL time.Duration) *Service {
	return &Service{store: store, meta: meta, rec: rec, presignTTL: presignTTL}
}

// Put normalizes input and uploads it to the bucket under key.
// Inline payloads are decoded into memory; staged files are streamed.
func (s *Service) Put(ctx context.Context, input fileinput.Input, key, contentType string) (*Upload, error) {
	src, err := fileinput.Open(input)
	if err != nil {
		return nil, s.fail(ctx, "put", KindInput, err)
	}
	defer src.Close()

	info, err := s.store.Put(ctx, key, src, src.Size, contentType)
	if err != nil {
		return nil, s.fail(ctx, "put", kindOf(err), err)
	}

	if err := s.meta.SaveObject(ctx, &ObjectRecord{
		Key:         info.Key,
		ContentType: contentType,
		Size:        info.Size,
		Location:    info.Location,
		ETag:        info.ETag,
	}); err != nil {
		// The object is durably stored; a bookkeeping miss must not fail the upload.
		log.Printf("media: record upload %q: %v", key, err)
	}

	s.rec.Record(ctx, notify.Success(callID(ctx), "put", fmt.Sprintf("uploaded %q (%d bytes)", key, info.Size)))
	return &Upload{Key: info.Key, Location: info.Location, Size: info.Size, ETag: info.ETag}, nil
}

// Get fetches the object at key, returning the backend-native body stream
// and metadata. The caller must Close the returned object's Body.
func (s *Service) Get(ctx context.Context, key string) (*storage.Object, error) {
	obj, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, s.fail(ctx, "get", kindOf(err), err)
	}
	s.rec.Record(ctx, notify.Success(callID(ctx), "get", fmt.Sprintf("fetched %q", key)))
	return obj, nil
}

// GetBase64 fetches the object at key and returns its body re-encoded as a
// base64 string. The entire object is materialized in memory — this is a
// deliberate constraint of the operation and makes it unsuitable for very
// large objects; use Get or PresignedURL for those.
func (s *Service) GetBase64(ctx context.Context, key string) (string, error) {
	obj, err := s.store.Get(ctx, key)
	if err != nil {
		return "", s.fail(ctx, "get_base64", kindOf(err), err)
	}
	defer obj.Body.Close()

	raw, err := io.ReadAll(obj.Body)
	if err != nil {
		return "", s.fail(ctx, "get_base64", KindBackend, fmt.Errorf("read object %q: %w", key, err))
	}

	s.rec.Record(ctx, notify.Success(callID(ctx), "get_base64", fmt.Sprintf("fetched %q (%d bytes, base64)", key, len(raw))))
	return base64.StdEncoding.EncodeToString(raw), nil
}

// PresignedURL produces a time-limited signed GET URL for key. An expiry
// of zero or less falls back to the configured default. Expiry is enforced
// by the backend, not by a local timer.
func (s *Service) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = s.presignTTL
	}
	u, err := s.store.PresignedGetURL(ctx, key, expiry)
	if err != nil {
		return "", s.fail(ctx, "presign", kindOf(err), err)
	}
	s.rec.Record(ctx, notify.Success(callID(ctx), "presign", fmt.Sprintf("presigned %q for %s", key, expiry)))
	return u, nil
}

// Delete removes the object at key. A nil return means the backend
// confirmed the delete; a missing key is reported as a not_found error.
func (s *Service) Delete(ctx context.Context, key string) error {
	if err := s.store.Delete(ctx, key); err != nil {
		return s.fail(ctx, "delete", kindOf(err), err)
	}

	if err := s.meta.DeleteObject(ctx, key); err != nil {
		log.Printf("media: unrecord delete %q: %v", key, err)
	}

	s.rec.Record(ctx, notify.Success(callID(ctx), "delete", fmt.Sprintf("deleted %q", key)))
	return nil
}

// List returns recorded uploads, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]ObjectRecord, error) {
	recs, err := s.meta.ListObjects(ctx, limit, offset)
	if err != nil {
		return nil, &Error{Op: "list", Kind: KindBackend, Err: err}
	}
	return recs, nil
}

// IsNotFound returns true when the error indicates a missing object.
func (s *Service) IsNotFound(err error) bool {
	var opErr *Error
	return errors.As(err, &opErr) && opErr.Kind == KindNotFound
}

// fail wraps err into the uniform failure shape and records the error event.
// The event carries the backend's message verbatim; the returned error is
// the authoritative result for the caller.
func (s *Service) fail(ctx context.Context, op string, kind Kind, err error) *Error {
	opErr := &Error{Op: op, Kind: kind, Err: err}
	s.rec.Record(ctx, notify.Failure(callID(ctx), op, err.Error()))
	return opErr
}

// kindOf maps storage-layer errors onto failure kinds.
func kindOf(err error) Kind {
	if errors.Is(err, storage.ErrNotFound) {
		return KindNotFound
	}
	return KindBackend
}

// callID identifies the current call in outcome events, using the request ID
// the router middleware assigned.
func callID(ctx context.Context) string {
	return chiMiddleware.GetReqID(ctx)
}
