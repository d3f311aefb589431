// Package httpapi exposes a small local-only, read-only inspection surface
// over the XP ledger and notification queue — never the write path the
// document watcher drives through the event bus. Trimmed to what a
// loopback-only inspection API needs: no CORS origin allowlist (there is
// no browser client), no auth header parsing (the server only ever binds
// to 127.0.0.1), but a security-headers and sliding-window rate-limit
// chain in front of every route.
package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// securityHeaders sets a conservative header set, appropriate even for a
// loopback API since nothing stops a browser tab from reaching
// 127.0.0.1.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs each request at debug level with method, path, status
// and latency.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", sw.status).
				Dur("latency", time.Since(start)).
				Msg("request")
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// RateLimiter is a per-key sliding-window limiter. This API has exactly
// one caller class (local tools on the same host), so there is no
// distributed case to fall back to.
type RateLimiter struct {
	log   zerolog.Logger
	rpm   int
	burst int
	mu    sync.Mutex
	seen  map[string][]time.Time
}

// NewRateLimiter builds a limiter allowing rpm requests per minute per
// remote address, with burst extra tokens.
func NewRateLimiter(log zerolog.Logger, rpm, burst int) *RateLimiter {
	return &RateLimiter{log: log, rpm: rpm, burst: burst, seen: make(map[string][]time.Time)}
}

// Handler wraps next with the rate limit check.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, remaining, resetAt := rl.allow(r.RemoteAddr, time.Now())
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.rpm+rl.burst))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(time.Until(resetAt).Seconds())+1))
			http.Error(w, fmt.Sprintf(`{"error":"rate_limit_exceeded","retry_after_seconds":%d}`,
				int(time.Until(resetAt).Seconds())+1), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(key string, now time.Time) (bool, int, time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	windowStart := now.Add(-time.Minute)
	tokens := rl.seen[key]
	valid := tokens[:0]
	for _, t := range tokens {
		if t.After(windowStart) {
			valid = append(valid, t)
		}
	}

	limit := rl.rpm + rl.burst
	if len(valid) >= limit {
		resetAt := now.Add(time.Minute)
		if len(valid) > 0 {
			resetAt = valid[0].Add(time.Minute)
		}
		rl.seen[key] = valid
		return false, 0, resetAt
	}

	valid = append(valid, now)
	rl.seen[key] = valid
	return true, limit - len(valid), now.Add(time.Minute)
}
