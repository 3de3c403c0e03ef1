package middleware

import (
	"archsite/internal/telemetry"
	"context"
	"log/slog"
	"math"
	"net/http"
	"net/netip"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	sweepEvery = time.Minute
	idleAfter  = 3 * time.Minute
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per client address.
type IPRateLimiter struct {
	mu      sync.Mutex
	clients map[netip.Addr]*client
	limit   rate.Limit
	burst   int
	addrOf  addrResolver
	Metrics *telemetry.Metrics
}

// NewIPRateLimiter allows each client limit events per second with bursts of
// burst. Use rate.Every for limits slower than one per second. Idle clients
// are forgotten until ctx is cancelled.
func NewIPRateLimiter(ctx context.Context, limit rate.Limit, burst int, trustedProxy bool, metrics *telemetry.Metrics) *IPRateLimiter {
	l := &IPRateLimiter{
		clients: make(map[netip.Addr]*client),
		limit:   limit,
		burst:   burst,
		addrOf:  clientAddrFunc(trustedProxy),
		Metrics: metrics,
	}
	go l.sweepLoop(ctx)
	return l
}

func (l *IPRateLimiter) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.sweep(time.Now())
		}
	}
}

func (l *IPRateLimiter) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for addr, c := range l.clients {
		if now.Sub(c.lastSeen) > idleAfter {
			delete(l.clients, addr)
		}
	}
}

func (l *IPRateLimiter) getLimiter(addr netip.Addr) *rate.Limiter {
	addr = addr.Unmap()

	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clients[addr]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[addr] = c
	}
	c.lastSeen = time.Now()
	return c.limiter
}

func (l *IPRateLimiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *IPRateLimiter) Middleware(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr, ok := l.addrOf(r)
			if !ok {
				http.Error(w, "invalid client address", http.StatusBadRequest)
				return
			}

			limiter := l.getLimiter(addr)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.burst))

			if !limiter.Allow() {
				// peek at the next token without consuming it
				reservation := limiter.Reserve()
				delay := reservation.Delay()
				reservation.Cancel()

				l.Metrics.RateLimitHitsTotal.Add(r.Context(), 1)
				LoggerFrom(r.Context(), logger).Warn("rate limit exceeded", "client", addr, "path", r.URL.Path)

				w.Header().Set("Retry-After", strconv.Itoa(max(1, int(math.Ceil(delay.Seconds())))))
				w.Header().Set("X-RateLimit-Remaining", "0")
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(limiter.Tokens())))
			next.ServeHTTP(w, r)
		})
	}
}
