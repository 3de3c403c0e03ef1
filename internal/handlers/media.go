package handlers

import (
	"archsite/internal/media"
	"archsite/internal/telemetry"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"slices"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// file names are reused once the previous file is deleted, so nothing is immutable
const (
	cacheOriginal = 3600
	cacheVariant  = 86400
)

// MediaHandler serves uploaded files and their webp width variants. A variant
// that does not exist yet is queued and the original is served meanwhile.
type MediaHandler struct {
	Media     *media.Store
	Processor media.VariantQueue
	Tracer    trace.Tracer
	Metrics   *telemetry.Metrics
	Logger    *slog.Logger
}

func (h *MediaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.Tracer.Start(r.Context(), "MediaHandler.ServeHTTP")
	defer span.End()

	key, ok := h.Media.KeyFor(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	span.SetAttributes(attribute.String("media.key", key))

	widthStr := r.URL.Query().Get("w")
	if widthStr == "" {
		h.record(r, "original")
		h.serve(w, r, key, contentTypeFor(key), cacheOriginal)
		return
	}

	width, err := strconv.Atoi(widthStr)
	if err != nil || !slices.Contains(media.VariantWidths, width) {
		http.NotFound(w, r)
		return
	}

	variantKey, ok := media.VariantKey(key, width)
	if !ok || !isImage(key) {
		http.NotFound(w, r)
		return
	}

	if h.Media.Exists(ctx, variantKey) {
		span.SetAttributes(attribute.String("cache.status", "hit"))
		h.Metrics.CacheHitsTotal.Add(ctx, 1)
		h.record(r, "variant_hit")

		w.Header().Set("X-Cache", "HIT")
		h.serve(w, r, variantKey, "image/webp", cacheVariant)
		return
	}

	span.SetAttributes(attribute.String("cache.status", "miss"))
	h.Metrics.CacheMissesTotal.Add(ctx, 1)
	h.record(r, "variant_miss")
	w.Header().Set("X-Cache", "MISS")

	if !h.Media.Exists(ctx, key) {
		http.NotFound(w, r)
		return
	}

	current := trace.SpanFromContext(ctx).SpanContext()
	for _, wanted := range media.VariantWidths {
		err := h.Processor.Enqueue(ctx, media.VariantJob{
			SourceKey:  key,
			Width:      wanted,
			ParentSpan: current,
		})
		if err != nil {
			h.Logger.Debug("variant not queued", "key", key, "width", wanted, "err", err)
		}
	}

	// no long caching, the next request should pick up the variant
	h.serve(w, r, key, contentTypeFor(key), 0)
}

func (h *MediaHandler) serve(w http.ResponseWriter, r *http.Request, key, contentType string, maxAge int) {
	ctx := r.Context()
	if !h.Media.Exists(ctx, key) {
		http.NotFound(w, r)
		return
	}

	reader, err := h.Media.Open(ctx, key)
	if err != nil {
		h.Logger.Error("failed to open media", "key", key, "err", err)
		http.NotFound(w, r)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", contentType)
	if !strings.HasPrefix(contentType, "image/") {
		// never let an upload render as a page of this site
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(key)))
	}
	if maxAge > 0 {
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", maxAge))
	} else {
		w.Header().Set("Cache-Control", "no-cache")
	}

	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, reader); err != nil {
		h.Logger.Warn("stream interrupted", "key", key, "err", err)
	}
}

func (h *MediaHandler) record(r *http.Request, outcome string) {
	h.Metrics.MediaRequestsTotal.Add(r.Context(), 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// contentTypeFor only trusts raster image extensions; everything else is
// served as an opaque download.
func contentTypeFor(key string) string {
	if !isImage(key) {
		return "application/octet-stream"
	}
	return mime.TypeByExtension(strings.ToLower(path.Ext(key)))
}

func isImage(key string) bool {
	switch strings.ToLower(path.Ext(key)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	}
	return false
}
