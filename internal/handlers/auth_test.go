package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestSafeRedirect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		target string
		want   string
	}{
		{"/admin/news", "/admin/news"},
		{"/admin/projects?x=1", "/admin/projects?x=1"},
		{"", "/admin"},
		{"https://evil.example", "/admin"},
		{"//evil.example", "/admin"},
		{"/\\evil.example", "/admin"},
		{"admin", "/admin"},
	}

	for _, tt := range tests {
		if got := safeRedirect(tt.target, "/admin"); got != tt.want {
			t.Errorf("safeRedirect(%q) = %q, want %q", tt.target, got, tt.want)
		}
	}
}

func TestEnsureAdmin(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := t.Context()

	if err := EnsureAdmin(ctx, env.store, AdminBootstrap{}, discardLogger()); err != nil {
		t.Fatalf("empty username: %v", err)
	}

	if err := EnsureAdmin(ctx, env.store, AdminBootstrap{Username: "admin", Password: "correct horse"}, discardLogger()); err != nil {
		t.Fatalf("EnsureAdmin failed: %v", err)
	}
	first, err := env.store.GetUserByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("admin not created: %v", err)
	}

	// a second start must not replace the account or its password
	if err := EnsureAdmin(ctx, env.store, AdminBootstrap{Username: "admin", Password: "another password"}, discardLogger()); err != nil {
		t.Fatalf("second EnsureAdmin failed: %v", err)
	}
	second, err := env.store.GetUserByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("GetUserByUsername failed: %v", err)
	}
	if first.ID != second.ID || first.PasswordHash != second.PasswordHash {
		t.Error("existing admin was modified")
	}

	reset := AdminBootstrap{Username: "admin", Password: "another password", Reset: true}
	if err := EnsureAdmin(ctx, env.store, reset, discardLogger()); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	third, err := env.store.GetUserByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("GetUserByUsername failed: %v", err)
	}
	if third.ID != first.ID {
		t.Errorf("reset created a new account: id %d, want %d", third.ID, first.ID)
	}
	if bcrypt.CompareHashAndPassword([]byte(third.PasswordHash), []byte("another password")) != nil {
		t.Error("password was not reset")
	}
}

func TestHandleLogin(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	if err := EnsureAdmin(t.Context(), env.store, AdminBootstrap{Username: "admin", Password: "correct horse"}, discardLogger()); err != nil {
		t.Fatalf("EnsureAdmin failed: %v", err)
	}

	tests := []struct {
		name         string
		username     string
		password     string
		next         string
		wantCode     int
		wantLocation string
	}{
		{"valid credentials", "admin", "correct horse", "", http.StatusSeeOther, "/admin"},
		{"continues to next", "admin", "correct horse", "/admin/news", http.StatusSeeOther, "/admin/news"},
		{"ignores foreign next", "admin", "correct horse", "//evil.example", http.StatusSeeOther, "/admin"},
		{"wrong password", "admin", "battery staple", "", http.StatusUnauthorized, ""},
		{"unknown user", "nobody", "correct horse", "", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := formRequest("/login", url.Values{
				"username": {tt.username},
				"password": {tt.password},
				"next":     {tt.next},
			})
			rec := env.serve("POST /login", env.site.HandleLogin(), req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if got := rec.Header().Get("Location"); got != tt.wantLocation {
				t.Errorf("Location = %q, want %q", got, tt.wantLocation)
			}

			setCookie := rec.Header().Get("Set-Cookie")
			if tt.wantCode == http.StatusSeeOther && setCookie == "" {
				t.Error("no session cookie issued")
			}
			if tt.wantCode == http.StatusUnauthorized {
				if setCookie != "" {
					t.Error("session cookie issued for a failed login")
				}
				if !strings.Contains(rec.Body.String(), "Invalid username or password.") {
					t.Error("missing error message")
				}
			}
		})
	}
}
