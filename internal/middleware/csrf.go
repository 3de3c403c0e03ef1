package middleware

import (
	"log/slog"
	"net/http"

	"github.com/justinas/nosurf"
)

type CSRF struct {
	isProd bool
	exempt []string
}

// NewCSRF protects every unsafe request except those to exemptPaths, which
// must defend themselves (the JSON API requires an application/json body).
func NewCSRF(isProd bool, exemptPaths ...string) *CSRF {
	return &CSRF{isProd: isProd, exempt: exemptPaths}
}

// Middleware checks the token on unsafe methods. Rejected requests are
// logged and handed to failure, or get a bare 403 when failure is nil.
func (c *CSRF) Middleware(logger *slog.Logger, failure http.Handler) Middleware {
	if failure == nil {
		failure = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "invalid CSRF token", http.StatusForbidden)
		})
	}

	return func(next http.Handler) http.Handler {
		guard := nosurf.New(next)
		guard.SetBaseCookie(http.Cookie{
			HttpOnly: true,
			Path:     "/",
			Secure:   c.isProd,
			SameSite: http.SameSiteLaxMode,
		})
		guard.ExemptPaths(c.exempt...)
		guard.SetFailureHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			LoggerFrom(r.Context(), logger).Warn("csrf check failed",
				"method", r.Method,
				"path", r.URL.Path,
				"reason", nosurf.Reason(r),
			)
			failure.ServeHTTP(w, r)
		}))
		return guard
	}
}
