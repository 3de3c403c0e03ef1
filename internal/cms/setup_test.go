package cms

import (
	"archsite/internal/content"
	"archsite/internal/media"
	"archsite/internal/storage"
	"archsite/internal/storage/sqlite"
	"archsite/internal/telemetry"
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/metric/noop"
)

type testEnv struct {
	manager  *Manager
	query    *Query
	contacts *Contacts
	pages    *Pages
	store    *sqlite.Store
	mediaDir string
}

// failingBlobs refuses to save keys containing "boom".
type failingBlobs struct {
	storage.Blobs
}

func (f failingBlobs) Save(ctx context.Context, key string, body io.Reader) error {
	if strings.Contains(key, "boom") {
		return errors.New("disk full")
	}
	return f.Blobs.Save(ctx, key, body)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.NewStore(filepath.Join(t.TempDir(), "cms.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Migrate("../../migrations"); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	mediaDir := t.TempDir()
	local, err := storage.NewLocalStorage(mediaDir)
	if err != nil {
		t.Fatalf("NewLocalStorage failed: %v", err)
	}
	t.Cleanup(func() { local.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics, err := telemetry.NewMetrics(noop.NewMeterProvider().Meter(""))
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}

	mediaStore := media.NewStore(failingBlobs{local}, "media", logger)
	reconciler := media.NewReconciler(mediaStore, metrics, logger)

	return &testEnv{
		manager:  NewManager(store, mediaStore, reconciler, metrics, logger),
		query:    NewQuery(store),
		contacts: NewContacts(store, metrics, logger),
		pages:    NewPages(store, logger),
		store:    store,
		mediaDir: mediaDir,
	}
}

// ownerFiles lists the files stored for an entity, relative to its directory.
func (e *testEnv) ownerFiles(t *testing.T, kind content.Kind, id string) []string {
	t.Helper()

	root := filepath.Join(e.mediaDir, string(kind), id)
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(root, p)
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("walk %s: %v", root, err)
	}
	return files
}

func projectFields(slug string) content.Fields {
	return content.Fields{
		"title":          "Forest House",
		"slug":           slug,
		"category":       "residential",
		"description":    "A timber house among pines",
		"content":        "## Concept\nLight through trees.",
		"location":       "Nordmarka",
		"completionDate": "2023-09",
		"isFeatured":     "on",
	}
}

func img(name string) media.Upload {
	return media.Upload{Filename: name, Data: []byte("jpeg:" + name)}
}

func slugs(entities []*storage.Entity) []string {
	out := make([]string, 0, len(entities))
	for _, e := range entities {
		out = append(out, e.Slug)
	}
	return out
}
