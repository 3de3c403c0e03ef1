package handlers

import (
	"archsite/internal/cms"
	"archsite/internal/content"
	"archsite/internal/media"
	"archsite/internal/middleware"
	"archsite/internal/storage"
	"archsite/internal/storage/sqlite"
	"archsite/internal/telemetry"
	"bytes"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alexedwards/scs/v2"
	"go.opentelemetry.io/otel/metric/noop"
)

const testMaxUpload = 1 << 20

type testEnv struct {
	site    *SiteHandler
	store   *sqlite.Store
	blobs   *storage.LocalStore
	media   *media.Store
	metrics *telemetry.Metrics
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.NewStore(filepath.Join(t.TempDir(), "site.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Migrate("../../migrations"); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	blobs, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage failed: %v", err)
	}
	t.Cleanup(func() { blobs.Close() })

	metrics, err := telemetry.NewMetrics(noop.NewMeterProvider().Meter(""))
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}

	logger := discardLogger()
	mediaStore := media.NewStore(blobs, "media", logger)
	reconciler := media.NewReconciler(mediaStore, metrics, logger)

	services := Services{
		Query:    cms.NewQuery(store),
		Manager:  cms.NewManager(store, mediaStore, reconciler, metrics, logger),
		Contacts: cms.NewContacts(store, metrics, logger),
		Pages:    cms.NewPages(store, logger),
	}
	sessions := &middleware.Sessions{Manager: scs.New()}

	site := NewSiteHandler("Test Studio", services, store, sessions, content.NewMarkDownRenderer("media"), testMaxUpload, logger)

	return &testEnv{
		site:    site,
		store:   store,
		blobs:   blobs,
		media:   mediaStore,
		metrics: metrics,
	}
}

// serve routes req through a mux holding the given pattern so path values
// resolve, inside a loaded session.
func (e *testEnv) serve(pattern string, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.Handle(pattern, h)

	rec := httptest.NewRecorder()
	e.site.Sessions.Manager.LoadAndSave(mux).ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) createProject(t *testing.T, slug string, featured bool) *storage.Entity {
	t.Helper()
	fields := content.Fields{
		"title":       "Project " + slug,
		"slug":        slug,
		"category":    "Residential",
		"description": "A house.",
		"content":     "Built in **timber**.",
	}
	if featured {
		fields["isFeatured"] = "on"
	}
	return e.create(t, content.KindProject, fields)
}

func (e *testEnv) createNews(t *testing.T, slug string, published bool) *storage.Entity {
	t.Helper()
	fields := content.Fields{
		"title":   "News " + slug,
		"slug":    slug,
		"content": "Something happened.",
		"date":    "2024-05-01",
	}
	if published {
		fields["isPublished"] = "on"
	}
	return e.create(t, content.KindNews, fields)
}

func (e *testEnv) create(t *testing.T, kind content.Kind, fields content.Fields) *storage.Entity {
	t.Helper()
	created, err := e.site.Services.Manager.Create(t.Context(), kind, cms.Submission{Fields: fields})
	if err != nil {
		t.Fatalf("Create %s failed: %v", kind, err)
	}
	return created
}

type formFile struct {
	field, name string
	data        []byte
}

func multipartRequest(t *testing.T, target string, fields map[string]string, files ...formFile) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField failed: %v", err)
		}
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatalf("CreateFormFile failed: %v", err)
		}
		fw.Write(f.data)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func formRequest(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}
