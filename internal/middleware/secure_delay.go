package middleware

import (
	"archsite/internal/telemetry"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

func authOutcome(status int) string {
	switch {
	case status >= 500:
		return "error"
	case status >= 400:
		return "rejected"
	default:
		return "ok"
	}
}

// SecureDelay pads every response from next to at least target so a failed
// login takes as long as a successful one. The real work time is recorded
// per outcome.
func SecureDelay(target time.Duration, metrics *telemetry.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			elapsed := time.Since(start)
			metrics.AuthWorkDuration.Record(r.Context(), float64(elapsed.Milliseconds()),
				metric.WithAttributes(attribute.String("outcome", authOutcome(wrapped.statusCode))))

			remaining := target - elapsed
			if remaining <= 0 {
				return
			}
			timer := time.NewTimer(remaining)
			defer timer.Stop()

			select {
			case <-r.Context().Done():
			case <-timer.C:
			}
		})
	}
}
