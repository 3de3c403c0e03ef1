package media

import (
	"archsite/internal/storage"
	"archsite/internal/telemetry"
	"context"
	"io"
	"log/slog"
	"testing"

	"go.opentelemetry.io/otel/metric/noop"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) (*Store, *storage.LocalStore) {
	t.Helper()

	blobs, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage failed: %v", err)
	}
	t.Cleanup(func() { blobs.Close() })

	return NewStore(blobs, "media", discardLogger()), blobs
}

func newTestReconciler(t *testing.T) (*Reconciler, *Store) {
	t.Helper()

	store, _ := newTestStore(t)
	return reconcilerFor(t, store), store
}

func reconcilerFor(t *testing.T, store *Store) *Reconciler {
	t.Helper()

	metrics, err := telemetry.NewMetrics(noop.NewMeterProvider().Meter(""))
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}
	return NewReconciler(store, metrics, discardLogger())
}

// hookedBlobs wraps a backend so a test can fail lookups or act just before
// a write lands.
type hookedBlobs struct {
	storage.Blobs
	statErr    error
	beforeSave func(key string)
}

func (h *hookedBlobs) Stat(ctx context.Context, key string) (bool, error) {
	if h.statErr != nil {
		return false, h.statErr
	}
	return h.Blobs.Stat(ctx, key)
}

func (h *hookedBlobs) Exists(ctx context.Context, key string) bool {
	ok, err := h.Stat(ctx, key)
	return ok && err == nil
}

func (h *hookedBlobs) Save(ctx context.Context, key string, body io.Reader) error {
	if h.beforeSave != nil {
		h.beforeSave(key)
	}
	return h.Blobs.Save(ctx, key, body)
}

func upload(name string) Upload {
	return Upload{Filename: name, Data: []byte("data:" + name)}
}
