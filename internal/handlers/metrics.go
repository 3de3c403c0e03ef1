package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"
)

// Pinger reports whether the relational store answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

const healthTimeout = 2 * time.Second

// HandleHealthz is the container liveness probe. It fails when the database
// does not answer in time.
func HandleHealthz(db Pinger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		w.Header().Set("Content-Type", "text/plain")
		w.Header().Set("Cache-Control", "no-store")
		if err := db.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("database unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

// HandleRuntimeStats returns JSON statistics about memory usage and content
// volume for the admin area.
func (h *SiteHandler) HandleRuntimeStats() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		counts, err := h.Services.Query.Counts(r.Context())
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, apiError{Error: "content store unavailable"})
			h.Logger.Error("runtime stats counts", "err", err)
			return
		}

		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		entities := make(map[string]int64, len(counts.Entities))
		for kind, n := range counts.Entities {
			entities[string(kind)] = n
		}

		stats := struct {
			Alloc       string           `json:"allocated_heap_mb"`  // Active objects in heap
			TotalAlloc  string           `json:"total_alloc_mb"`     // Cumulative allocs (shows churn)
			Sys         string           `json:"system_obtained_mb"` // Total RAM asked from OS
			NumGC       uint32           `json:"gc_cycles"`
			CurrentTime time.Time        `json:"server_time"`
			Goroutines  int              `json:"goroutines"`
			Cores       int              `json:"cpu_cores"`
			Entities    map[string]int64 `json:"entities"`
			Contacts    int64            `json:"contact_messages"`
		}{
			Alloc:       bToMb(m.Alloc),
			TotalAlloc:  bToMb(m.TotalAlloc),
			Sys:         bToMb(m.Sys),
			NumGC:       m.NumGC,
			CurrentTime: time.Now().Local().Truncate(time.Millisecond),
			Goroutines:  runtime.NumGoroutine(),
			Cores:       runtime.NumCPU(),
			Entities:    entities,
			Contacts:    counts.Contacts,
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		json.NewEncoder(w).Encode(stats)
	})
}

// Helper to format bytes to MB string
func bToMb(b uint64) string {
	mb := float64(b) / 1024 / 1024
	return fmt.Sprintf("%.2f MB", mb)
}
