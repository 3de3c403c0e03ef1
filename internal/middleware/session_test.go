package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"
)

func TestSessionsLoginLogout(t *testing.T) {
	t.Parallel()

	sessions := &Sessions{Manager: scs.New()}

	var steps []string
	h := sessions.Manager.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if sessions.LoggedIn(ctx) {
			t.Error("fresh session is logged in")
		}

		if err := sessions.Login(ctx, 42, "studio"); err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if !sessions.LoggedIn(ctx) || sessions.Username(ctx) != "studio" {
			t.Errorf("after login: logged in %v, username %q", sessions.LoggedIn(ctx), sessions.Username(ctx))
		}
		steps = append(steps, "login")

		if err := sessions.Logout(ctx); err != nil {
			t.Fatalf("Logout failed: %v", err)
		}
		if sessions.LoggedIn(ctx) || sessions.Username(ctx) != "" {
			t.Error("session survived logout")
		}
		steps = append(steps, "logout")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))

	if len(steps) != 2 {
		t.Fatalf("handler stopped early: %v", steps)
	}
}
