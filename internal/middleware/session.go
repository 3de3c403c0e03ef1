package middleware

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// session keys of the logged in admin
const (
	SessionUserID   = "userID"
	SessionUsername = "username"
)

// expired rows are purged from the sessions table this often
const sessionCleanupInterval = 30 * time.Minute

// Sessions wraps the scs manager with the admin login state.
type Sessions struct {
	Manager *scs.SessionManager
}

// NewSessionManager keeps sessions in the sessions table of db. They expire
// ttl after login or after a quarter of ttl without activity.
func NewSessionManager(ttl time.Duration, secure bool, db *sql.DB) *Sessions {
	sm := scs.New()
	sm.Store = sqlite3store.NewWithCleanupInterval(db, sessionCleanupInterval)
	sm.Lifetime = ttl
	sm.IdleTimeout = ttl / 4

	sm.Cookie.Name = "archsite_session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = secure
	sm.Cookie.Persist = true

	return &Sessions{Manager: sm}
}

// Login rotates the session token and binds the session to the account.
func (s *Sessions) Login(ctx context.Context, userID int64, username string) error {
	if err := s.Manager.RenewToken(ctx); err != nil {
		return fmt.Errorf("renew session token: %w", err)
	}
	s.Manager.Put(ctx, SessionUserID, userID)
	s.Manager.Put(ctx, SessionUsername, username)
	return nil
}

// Logout deletes the session row and expires the cookie.
func (s *Sessions) Logout(ctx context.Context) error {
	if err := s.Manager.Destroy(ctx); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}

func (s *Sessions) LoggedIn(ctx context.Context) bool {
	return s.Manager.GetInt64(ctx, SessionUserID) != 0
}

// Username is the logged in admin, or "" for visitors.
func (s *Sessions) Username(ctx context.Context) string {
	return s.Manager.GetString(ctx, SessionUsername)
}

func (s *Sessions) Middleware(logger *slog.Logger, tracer trace.Tracer) Middleware {
	return func(next http.Handler) http.Handler {
		load := s.Manager.LoadAndSave(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(r.Context(), "middleware.Session",
				trace.WithAttributes(attribute.String("session.cookie", s.Manager.Cookie.Name)))
			defer span.End()

			load.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin lets through requests carrying a logged in session and sends
// everyone else to the login page.
func (s *Sessions) RequireAdmin(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// admin pages are never cached, logged in or not
			w.Header().Set("Cache-Control", "no-store")

			if !s.LoggedIn(r.Context()) {
				LoggerFrom(r.Context(), logger).Info("admin access without session", "method", r.Method, "path", r.URL.Path)

				// only a GET can be replayed after login
				target := "/login"
				if r.Method == http.MethodGet {
					target += "?next=" + url.QueryEscape(r.URL.RequestURI())
				}
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
