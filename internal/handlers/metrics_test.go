package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHandleHealthz(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		db   Pinger
		want int
	}{
		{"healthy", pingerFunc(func(ctx context.Context) error { return nil }), http.StatusOK},
		{"database down", pingerFunc(func(ctx context.Context) error { return errors.New("locked") }), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			HandleHealthz(tt.db).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandleRuntimeStats(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.createProject(t, "harbour-house", false)

	rec := env.serve("GET /admin/runtime", env.site.HandleRuntimeStats(), httptest.NewRequest(http.MethodGet, "/admin/runtime", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var stats struct {
		Entities map[string]int64 `json:"entities"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if stats.Entities["project"] != 1 {
		t.Errorf("entities = %v, want one project", stats.Entities)
	}
}
