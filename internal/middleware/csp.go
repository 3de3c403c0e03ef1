package middleware

import (
	"net/http"
	"strings"
)

// CSP sets the content security policy and the other static security headers.
type CSP struct {
	isProd bool
	policy string
}

type directive struct {
	name    string
	sources []string
}

// NewCSP builds the security headers. Uploaded media is served from this
// origin; imageSources adds hosts for images embedded in markdown bodies.
func NewCSP(isProd bool, imageSources ...string) *CSP {
	directives := []directive{
		{"default-src", []string{"'self'"}},
		{"script-src", []string{"'self'"}},
		{"style-src", []string{"'self'", "'unsafe-inline'", "https://fonts.googleapis.com"}},
		{"img-src", append([]string{"'self'", "data:"}, imageSources...)},
		{"font-src", []string{"'self'", "https://fonts.gstatic.com"}},
		{"connect-src", []string{"'self'"}},
		{"object-src", []string{"'none'"}},
		{"frame-ancestors", []string{"'none'"}},
		{"base-uri", []string{"'self'"}},
		{"form-action", []string{"'self'"}},
	}

	parts := make([]string, 0, len(directives))
	for _, d := range directives {
		parts = append(parts, d.name+" "+strings.Join(d.sources, " "))
	}

	return &CSP{isProd: isProd, policy: strings.Join(parts, "; ")}
}

func (c *CSP) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Content-Security-Policy", c.policy)
			if c.isProd {
				h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")
			}
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")

			next.ServeHTTP(w, r)
		})
	}
}
