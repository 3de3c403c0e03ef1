package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func (e *testEnv) publicMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /{$}", e.site.HandleHome())
	mux.Handle("GET /projects", e.site.HandleProjects())
	mux.Handle("GET /projects/{slug}", e.site.HandleProject())
	mux.Handle("GET /about", e.site.HandleAbout())
	mux.Handle("GET /about/services", e.site.HandleServices())
	mux.Handle("GET /about/services/{slug}", e.site.HandleService())
	mux.Handle("GET /news", e.site.HandleNewsList())
	mux.Handle("GET /news/{slug}", e.site.HandleNews())
	return mux
}

func TestPublicPages(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.createProject(t, "harbour-house", true)
	env.createProject(t, "quiet-barn", false)
	env.createNews(t, "live", true)
	env.createNews(t, "draft", false)
	env.create(t, "service", map[string]string{
		"title":       "Interior Design",
		"slug":        "interiors",
		"description": "Rooms.",
		"content":     "We draw rooms.",
	})

	tests := []struct {
		name        string
		path        string
		wantCode    int
		contains    []string
		notContains []string
	}{
		{"home lists featured only", "/", http.StatusOK, []string{"Project harbour-house", "News live"}, []string{"Project quiet-barn", "News draft"}},
		{"project list", "/projects", http.StatusOK, []string{"Project harbour-house", "Project quiet-barn"}, nil},
		{"project detail renders markdown", "/projects/quiet-barn", http.StatusOK, []string{"<strong>timber</strong>"}, nil},
		{"unknown project", "/projects/nope", http.StatusNotFound, []string{"Page Not Found"}, nil},
		{"about shows services", "/about", http.StatusOK, []string{"Interior Design"}, nil},
		{"service list", "/about/services", http.StatusOK, []string{"Interior Design"}, nil},
		{"service detail", "/about/services/interiors", http.StatusOK, []string{"We draw rooms."}, nil},
		{"news list hides drafts", "/news", http.StatusOK, []string{"News live"}, []string{"News draft"}},
		{"published news", "/news/live", http.StatusOK, []string{"Something happened."}, nil},
		{"draft news is not found", "/news/draft", http.StatusNotFound, nil, nil},
	}

	mux := env.publicMux()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.serve("/", mux, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
				t.Errorf("Content-Type = %q", ct)
			}
			body := rec.Body.String()
			for _, s := range tt.contains {
				if !strings.Contains(body, s) {
					t.Errorf("body does not contain %q", s)
				}
			}
			for _, s := range tt.notContains {
				if strings.Contains(body, s) {
					t.Errorf("body unexpectedly contains %q", s)
				}
			}
		})
	}
}

func TestStoreUnavailable(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.store.Close()

	rec := env.serve("/", env.publicMux(), httptest.NewRequest(http.MethodGet, "/projects", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
}
