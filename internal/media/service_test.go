package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stashbox/service/internal/fileinput"
	"github.com/stashbox/service/internal/notify"
	"github.com/stashbox/service/internal/storage"
)

// --- Mock object store ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (*storage.UploadInfo, error) {
	args := m.Called(ctx, key, reader, size, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.UploadInfo), args.Error(1)
}

func (m *mockStore) Get(ctx context.Context, key string) (*storage.Object, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Object), args.Error(1)
}

func (m *mockStore) PresignedGetURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, key, expiry)
	return args.String(0), args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// --- Mock metadata store ---

type mockMeta struct {
	mock.Mock
}

func (m *mockMeta) SaveObject(ctx context.Context, rec *ObjectRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *mockMeta) DeleteObject(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *mockMeta) ListObjects(ctx context.Context, limit, offset int) ([]ObjectRecord, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ObjectRecord), args.Error(1)
}

// --- Capturing recorder ---

type captureRecorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (c *captureRecorder) Record(_ context.Context, ev notify.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *captureRecorder) last(t *testing.T) notify.Event {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.events, "expected at least one recorded event")
	return c.events[len(c.events)-1]
}

func newTestService(store *mockStore, meta *mockMeta) (*Service, *captureRecorder) {
	rec := &captureRecorder{}
	return NewService(store, meta, rec, 10*time.Second), rec
}

// --- Put ---

func TestPutDecodesDataURIBeforeUpload(t *testing.T) {
	store := new(mockStore)
	meta := new(mockMeta)
	svc, rec := newTestService(store, meta)

	var uploaded []byte
	store.On("Put", mock.Anything, "a.png", mock.Anything, int64(3), "image/png").
		Run(func(args mock.Arguments) {
			b, err := io.ReadAll(args.Get(2).(io.Reader))
			require.NoError(t, err)
			uploaded = b
		}).
		Return(&storage.UploadInfo{Key: "a.png", Location: "http://localhost:9000/stash/a.png", Size: 3, ETag: "etag-1"}, nil)
	meta.On("SaveObject", mock.Anything, mock.Anything).Return(nil)

	up, err := svc.Put(context.Background(), fileinput.Inline("data:image/png;base64,QUJD"), "a.png", "image/png")
	require.NoError(t, err)

	assert.Equal(t, []byte("ABC"), uploaded)
	assert.Equal(t, "a.png", up.Key)
	assert.Equal(t, "http://localhost:9000/stash/a.png", up.Location)
	assert.Equal(t, int64(3), up.Size)

	ev := rec.last(t)
	assert.True(t, ev.OK)
	assert.Equal(t, "put", ev.Op)
	assert.Equal(t, notify.SeverityInfo, ev.Severity)
	store.AssertExpectations(t)
}

func TestPutDecodesBarePayload(t *testing.T) {
	store := new(mockStore)
	meta := new(mockMeta)
	svc, _ := newTestService(store, meta)

	var uploaded []byte
	store.On("Put", mock.Anything, "b.bin", mock.Anything, int64(3), "application/octet-stream").
		Run(func(args mock.Arguments) {
			b, _ := io.ReadAll(args.Get(2).(io.Reader))
			uploaded = b
		}).
		Return(&storage.UploadInfo{Key: "b.bin", Location: "http://localhost:9000/stash/b.bin", Size: 3}, nil)
	meta.On("SaveObject", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.Put(context.Background(), fileinput.Inline("QUJD"), "b.bin", "application/octet-stream")
	require.NoError(t, err)
	assert.Equal(t, []byte("ABC"), uploaded)
}

func TestPutBackendFailure(t *testing.T) {
	store := new(mockStore)
	meta := new(mockMeta)
	svc, rec := newTestService(store, meta)

	backendErr := errors.New("access denied for bucket")
	store.On("Put", mock.Anything, "a.png", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, backendErr)

	_, err := svc.Put(context.Background(), fileinput.Inline("QUJD"), "a.png", "image/png")
	require.Error(t, err)

	var opErr *Error
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "put", opErr.Op)
	assert.Equal(t, KindBackend, opErr.Kind)
	assert.ErrorIs(t, err, backendErr)

	// The error event carries the backend's message verbatim.
	ev := rec.last(t)
	assert.False(t, ev.OK)
	assert.Equal(t, notify.SeverityError, ev.Severity)
	assert.Contains(t, ev.Message, "access denied for bucket")
	meta.AssertNotCalled(t, "SaveObject", mock.Anything, mock.Anything)
}

func TestPutMissingStagedFileIsInputError(t *testing.T) {
	store := new(mockStore)
	meta := new(mockMeta)
	svc, rec := newTestService(store, meta)

	_, err := svc.Put(context.Background(), fileinput.Staged("/nonexistent/staged-file"), "a.png", "image/png")
	require.Error(t, err)

	var opErr *Error
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, KindInput, opErr.Kind)
	assert.False(t, rec.last(t).OK)
	store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPutSucceedsWhenBookkeepingFails(t *testing.T) {
	store := new(mockStore)
	meta := new(mockMeta)
	svc, rec := newTestService(store, meta)

	store.On("Put", mock.Anything, "a.png", mock.Anything, mock.Anything, mock.Anything).
		Return(&storage.UploadInfo{Key: "a.png", Location: "loc", Size: 3}, nil)
	meta.On("SaveObject", mock.Anything, mock.Anything).Return(errors.New("db down"))

	up, err := svc.Put(context.Background(), fileinput.Inline("QUJD"), "a.png", "image/png")
	require.NoError(t, err, "a durably stored object must not be reported as a failed upload")
	assert.Equal(t, "a.png", up.Key)
	assert.True(t, rec.last(t).OK)
}

// --- Get / GetBase64 ---

func TestGetReturnsBackendObject(t *testing.T) {
	store := new(mockStore)
	meta := new(mockMeta)
	svc, rec := newTestService(store, meta)

	store.On("Get", mock.Anything, "a.png").Return(&storage.Object{
		Body:        io.NopCloser(strings.NewReader("ABC")),
		Key:         "a.png",
		ContentType: "image/png",
		Size:        3,
	}, nil)

	obj, err := svc.Get(context.Background(), "a.png")
	require.NoError(t, err)
	defer obj.Body.Close()

	assert.Equal(t, "image/png", obj.ContentType)
	b, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte("ABC"), b)
	assert.True(t, rec.last(t).OK)
}

func TestGetBase64RoundTrip(t *testing.T) {
	store := new(mockStore)
	meta := new(mockMeta)
	svc, _ := newTestService(store, meta)

	store.On("Get", mock.Anything, "a.png").Return(&storage.Object{
		Body: io.NopCloser(strings.NewReader("ABC")),
		Key:  "a.png",
		Size: 3,
	}, nil)

	encoded, err := svc.GetBase64(context.Background(), "a.png")
	require.NoError(t, err)
	assert.Equal(t, "QUJD", encoded)
}

func TestGetNotFound(t *testing.T) {
	store := new(mockStore)
	meta := new(mockMeta)
	svc, _ := newTestService(store, meta)

	store.On("Get", mock.Anything, "missing").
		Return(nil, fmt.Errorf("stat object %q: %w", "missing", storage.ErrNotFound))

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, svc.IsNotFound(err))
}

// --- PresignedURL ---

func TestPresignedURLAppliesDefaultExpiry(t *testing.T) {
	store := new(mockStore)
	meta := new(mockMeta)
	svc, _ := newTestService(store, meta)

	store.On("PresignedGetURL", mock.Anything, "a.png", 10*time.Second).
		Return("http://signed.example/a.png", nil)

	u, err := svc.PresignedURL(context.Background(), "a.png", 0)
	require.NoError(t, err)
	assert.Equal(t, "http://signed.example/a.png", u)
	store.AssertExpectations(t)
}

func TestPresignedURLExplicitExpiryWins(t *testing.T) {
	store := new(mockStore)
	meta := new(mockMeta)
	svc, _ := newTestService(store, meta)

	store.On("PresignedGetURL", mock.Anything, "a.png", time.Minute).
		Return("http://signed.example/a.png", nil)

	_, err := svc.PresignedURL(context.Background(), "a.png", time.Minute)
	require.NoError(t, err)
	store.AssertExpectations(t)
}

// --- Delete ---

func TestDeleteSuccess(t *testing.T) {
	store := new(mockStore)
	meta := new(mockMeta)
	svc, rec := newTestService(store, meta)

	store.On("Delete", mock.Anything, "a.png").Return(nil)
	meta.On("DeleteObject", mock.Anything, "a.png").Return(nil)

	require.NoError(t, svc.Delete(context.Background(), "a.png"))
	assert.True(t, rec.last(t).OK)
}

func TestDeleteMissingKey(t *testing.T) {
	store := new(mockStore)
	meta := new(mockMeta)
	svc, rec := newTestService(store, meta)

	backendErr := fmt.Errorf("stat object %q: %w", "missing-key", storage.ErrNotFound)
	store.On("Delete", mock.Anything, "missing-key").Return(backendErr)

	err := svc.Delete(context.Background(), "missing-key")
	require.Error(t, err)
	assert.True(t, svc.IsNotFound(err))

	ev := rec.last(t)
	assert.False(t, ev.OK)
	assert.Contains(t, ev.Message, "missing-key")
	meta.AssertNotCalled(t, "DeleteObject", mock.Anything, mock.Anything)

	// Deleting the same missing key again is just another failed call,
	// never a crash.
	err = svc.Delete(context.Background(), "missing-key")
	require.Error(t, err)
}
