package telemetry

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all the metric instruments for the site
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter
	// content lifecycle
	EntityMutationsTotal metric.Int64Counter
	MediaStoredTotal     metric.Int64Counter
	MediaDeletedTotal    metric.Int64Counter
	ContactMessagesTotal metric.Int64Counter
	// variant cache
	CacheHitsTotal   metric.Int64Counter
	CacheMissesTotal metric.Int64Counter
	// limiter
	RateLimitHitsTotal metric.Int64Counter
	// media
	MediaRequestsTotal metric.Int64Counter
	// middlewares
	AuthWorkDuration metric.Float64Histogram
}

// instruments creates instruments on one meter and keeps every failure.
type instruments struct {
	meter metric.Meter
	errs  []error
}

func (b *instruments) counter(name, desc, unit string) metric.Int64Counter {
	c, err := b.meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("%s: %w", name, err))
	}
	return c
}

func (b *instruments) upDown(name, desc, unit string) metric.Int64UpDownCounter {
	c, err := b.meter.Int64UpDownCounter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("%s: %w", name, err))
	}
	return c
}

func (b *instruments) histogram(name, desc, unit string) metric.Float64Histogram {
	h, err := b.meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("%s: %w", name, err))
	}
	return h
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	b := &instruments{meter: meter}

	m := &Metrics{
		HTTPRequestsTotal:   b.counter("http_requests", "Total number of HTTP requests", "{request}"),
		HTTPRequestDuration: b.histogram("http_request_duration", "HTTP request latency", "ms"),
		HTTPActiveRequests:  b.upDown("http_active_requests", "Number of in-flight requests", "{request}"),

		EntityMutationsTotal: b.counter("entity_mutations", "Create, update and delete operations on content entities by outcome", "{operation}"),
		MediaStoredTotal:     b.counter("media_files_stored", "Uploaded files written to the blob store", "{file}"),
		MediaDeletedTotal:    b.counter("media_files_deleted", "Files removed from the blob store", "{file}"),
		ContactMessagesTotal: b.counter("contact_messages", "Contact form submissions by outcome", "{message}"),

		CacheHitsTotal:   b.counter("variant_cache_hits", "Image variant requests served from the cache", "{hit}"),
		CacheMissesTotal: b.counter("variant_cache_misses", "Image variant requests that queued a resize", "{miss}"),

		RateLimitHitsTotal: b.counter("rate_limit_hits", "Requests blocked by a rate limiter", "{request}"),
		MediaRequestsTotal: b.counter("media_requests", "Media files requested by result", "{request}"),
		AuthWorkDuration:   b.histogram("auth_work_duration", "Time spent checking credentials before padding", "ms"),
	}

	if err := errors.Join(b.errs...); err != nil {
		return nil, fmt.Errorf("create instruments: %w", err)
	}
	return m, nil
}

// RecordMutation counts one lifecycle operation. outcome is "ok" or the failed stage.
func (m *Metrics) RecordMutation(ctx context.Context, kind, op, outcome string) {
	m.EntityMutationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("op", op),
		attribute.String("outcome", outcome),
	))
}
