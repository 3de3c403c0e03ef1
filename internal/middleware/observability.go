package middleware

import (
	"archsite/internal/telemetry"
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// using a bare string as a ctx key will cause a staticcheck error.
type contextKey string

const loggerKey contextKey = "logger"

// LoggerFrom returns the request scoped logger set by Observability, or
// fallback when telemetry is off.
func LoggerFrom(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return fallback
}

// path segments that name a route rather than a record
var routeWords = map[string]bool{
	"about": true, "admin": true, "api": true, "contact": true, "contacts": true,
	"delete": true, "login": true, "logout": true, "new": true, "news": true,
	"pages": true, "projects": true, "runtime": true, "services": true, "static": true,
}

const maxRouteDepth = 3

// routeLabel collapses slugs, ids and file keys so metric attributes stay
// low cardinality: /admin/projects/0190.../delete becomes /admin/projects/*/delete.
func routeLabel(path string, extra map[string]bool) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) == 1 && segments[0] == "" {
		return "/"
	}

	var b strings.Builder
	for i, seg := range segments {
		if i == maxRouteDepth {
			b.WriteString("/...")
			break
		}
		b.WriteByte('/')
		if routeWords[seg] || extra[seg] {
			b.WriteString(seg)
		} else {
			b.WriteByte('*')
		}
	}
	return b.String()
}

// Observability starts a server span per request and records request
// metrics. routePrefixes are extra literal segments, such as the media prefix.
func Observability(tracer trace.Tracer, metrics *telemetry.Metrics, logger *slog.Logger, routePrefixes ...string) Middleware {
	extra := make(map[string]bool, len(routePrefixes))
	for _, p := range routePrefixes {
		extra[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := uuid.Must(uuid.NewV7()).String()
			route := routeLabel(r.URL.Path, extra)

			ctx, span := tracer.Start(r.Context(), r.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.route", route),
					attribute.String("url.path", r.URL.Path),
					attribute.String("http.user_agent", r.Header.Get("User-Agent")),
					attribute.String("trace.id", traceID),
				),
			)
			defer span.End()

			w.Header().Set("X-Trace-ID", traceID)

			reqLogger := logger.With("trace_id", traceID, "span_id", span.SpanContext().SpanID().String())
			ctx = context.WithValue(ctx, loggerKey, reqLogger)

			metrics.HTTPActiveRequests.Add(ctx, 1)
			defer metrics.HTTPActiveRequests.Add(ctx, -1)

			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r.WithContext(ctx))

			// 4xx is the client's fault and not a span error
			if wrapped.statusCode >= 500 {
				span.SetStatus(codes.Error, http.StatusText(wrapped.statusCode))
			} else {
				span.SetStatus(codes.Ok, "")
			}

			elapsed := float64(time.Since(start).Milliseconds())
			attrs := metric.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
				attribute.Int("http.status_code", wrapped.statusCode),
			)
			metrics.HTTPRequestsTotal.Add(ctx, 1, attrs)
			metrics.HTTPRequestDuration.Record(ctx, elapsed, attrs)

			span.SetAttributes(
				attribute.Int("http.status_code", wrapped.statusCode),
				attribute.Float64("http.duration_ms", elapsed),
			)
		})
	}
}

// responseWriter remembers the status code written by the inner handler.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (w *responseWriter) WriteHeader(code int) {
	if w.written {
		return
	}
	w.statusCode = code
	w.written = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
