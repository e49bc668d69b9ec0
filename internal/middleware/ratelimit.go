package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
)

const (
	windowDuration  = 1 * time.Minute
	cleanupInterval = 1 * time.Minute
)

// RateLimiter wraps an http.Handler with a sliding-window limit per client
// IP. Paths under the bypass prefixes (health checks, swagger assets) are
// never limited.
type RateLimiter struct {
	limit          int
	window         time.Duration
	bypassPrefixes []string

	mu       sync.Mutex
	requests map[string][]time.Time

	done      chan struct{}
	closeOnce sync.Once
}

// NewRateLimiter creates a limiter allowing limit requests per minute per IP.
// Close must be called on shutdown to stop the cleanup goroutine.
func NewRateLimiter(limit int, bypassPrefixes []string) (*RateLimiter, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("rate limit must be positive, got %d", limit)
	}

	rl := &RateLimiter{
		limit:          limit,
		window:         windowDuration,
		bypassPrefixes: bypassPrefixes,
		requests:       make(map[string][]time.Time),
		done:           make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl, nil
}

// Middleware wraps next with the rate limit.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, prefix := range rl.bypassPrefixes {
			if strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}

		ip := clientIP(r)
		allowed, oldest := rl.allow(ip)
		if !allowed {
			retryAfter := int(rl.window.Seconds() - time.Since(oldest).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			slog.Debug("rate limit exceeded", "ip", ip, "path", r.URL.Path)
			w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(ip string) (bool, time.Time) {
	now := time.Now()
	cutoff := now.Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	valid := recentTimestamps(rl.requests[ip], cutoff)
	if len(valid) >= rl.limit {
		return false, valid[0]
	}
	rl.requests[ip] = append(valid, now)
	return true, time.Time{}
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.done:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	cutoff := time.Now().Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, timestamps := range rl.requests {
		valid := recentTimestamps(timestamps, cutoff)
		if len(valid) == 0 {
			delete(rl.requests, ip)
		} else {
			rl.requests[ip] = valid
		}
	}
}

func recentTimestamps(timestamps []time.Time, cutoff time.Time) []time.Time {
	return lo.Filter(timestamps, func(ts time.Time, _ int) bool {
		return ts.After(cutoff)
	})
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() {
		close(rl.done)
	})
}

// clientIP extracts the client address, trusting proxy headers. Only run
// this service behind a reverse proxy that sets them.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return host
}
