package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewRateLimiter(t *testing.T) {
	tests := []struct {
		name    string
		limit   int
		wantErr bool
	}{
		{name: "valid limit", limit: 100, wantErr: false},
		{name: "zero limit", limit: 0, wantErr: true},
		{name: "negative limit", limit: -10, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl, err := NewRateLimiter(tt.limit, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewRateLimiter() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if rl != nil {
				rl.Close()
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name          string
		remoteAddr    string
		xForwardedFor string
		xRealIP       string
		expected      string
	}{
		{
			name:       "RemoteAddr only",
			remoteAddr: "192.168.1.1:12345",
			expected:   "192.168.1.1",
		},
		{
			name:          "X-Forwarded-For single IP",
			remoteAddr:    "192.168.1.1:12345",
			xForwardedFor: "203.0.113.1",
			expected:      "203.0.113.1",
		},
		{
			name:          "X-Forwarded-For multiple IPs",
			remoteAddr:    "192.168.1.1:12345",
			xForwardedFor: "203.0.113.1, 198.51.100.1",
			expected:      "203.0.113.1",
		},
		{
			name:       "X-Real-IP fallback",
			remoteAddr: "192.168.1.1:12345",
			xRealIP:    "203.0.113.1",
			expected:   "203.0.113.1",
		},
		{
			name:          "X-Forwarded-For beats X-Real-IP",
			remoteAddr:    "192.168.1.1:12345",
			xForwardedFor: "203.0.113.1",
			xRealIP:       "198.51.100.1",
			expected:      "203.0.113.1",
		},
		{
			name:       "RemoteAddr without port",
			remoteAddr: "192.168.1.1",
			expected:   "192.168.1.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xForwardedFor != "" {
				req.Header.Set("X-Forwarded-For", tt.xForwardedFor)
			}
			if tt.xRealIP != "" {
				req.Header.Set("X-Real-IP", tt.xRealIP)
			}

			if got := clientIP(req); got != tt.expected {
				t.Errorf("clientIP() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRateLimiterAllow(t *testing.T) {
	rl, err := NewRateLimiter(3, nil)
	if err != nil {
		t.Fatalf("failed to create rate limiter: %v", err)
	}
	defer rl.Close()

	ip := "192.168.1.1"
	for i := 0; i < 3; i++ {
		allowed, _ := rl.allow(ip)
		if !allowed {
			t.Errorf("request %d should be allowed", i+1)
		}
	}

	allowed, oldest := rl.allow(ip)
	if allowed {
		t.Error("4th request should be blocked")
	}
	if oldest.IsZero() {
		t.Error("oldest request timestamp should be set when blocked")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	tests := []struct {
		name          string
		limit         int
		bypass        []string
		path          string
		requests      int
		expectBlocked bool
	}{
		{name: "under limit", limit: 5, path: "/api/v1/sessions", requests: 3, expectBlocked: false},
		{name: "at limit", limit: 3, path: "/api/v1/sessions", requests: 3, expectBlocked: false},
		{name: "over limit", limit: 3, path: "/api/v1/sessions", requests: 4, expectBlocked: true},
		{name: "health bypass", limit: 1, bypass: []string{"/healthz"}, path: "/healthz", requests: 10, expectBlocked: false},
		{name: "swagger bypass", limit: 1, bypass: []string{"/swagger/"}, path: "/swagger/index.html", requests: 10, expectBlocked: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl, err := NewRateLimiter(tt.limit, tt.bypass)
			if err != nil {
				t.Fatalf("failed to create rate limiter: %v", err)
			}
			defer rl.Close()

			handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			var lastStatus int
			var lastRetryAfter string
			for i := 0; i < tt.requests; i++ {
				req := httptest.NewRequest("GET", tt.path, nil)
				req.RemoteAddr = "192.168.1.1:12345"
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, req)
				lastStatus = w.Code
				lastRetryAfter = w.Header().Get("Retry-After")
			}

			if tt.expectBlocked {
				if lastStatus != http.StatusTooManyRequests {
					t.Errorf("expected status %d, got %d", http.StatusTooManyRequests, lastStatus)
				}
				if lastRetryAfter == "" || lastRetryAfter == "0" {
					t.Errorf("Retry-After should be a positive integer, got %q", lastRetryAfter)
				}
			} else if lastStatus != http.StatusOK {
				t.Errorf("expected status %d, got %d", http.StatusOK, lastStatus)
			}
		})
	}
}

func TestRateLimiterIndependentIPs(t *testing.T) {
	rl, err := NewRateLimiter(2, nil)
	if err != nil {
		t.Fatalf("failed to create rate limiter: %v", err)
	}
	defer rl.Close()

	rl.allow("192.168.1.1")
	rl.allow("192.168.1.1")
	if allowed, _ := rl.allow("192.168.1.1"); allowed {
		t.Error("first IP should be blocked after limit")
	}
	if allowed, _ := rl.allow("192.168.1.2"); !allowed {
		t.Error("second IP should have an independent limit")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl, err := NewRateLimiter(10, nil)
	if err != nil {
		t.Fatalf("failed to create rate limiter: %v", err)
	}
	defer rl.Close()

	rl.window = 50 * time.Millisecond
	rl.allow("192.168.1.1")
	rl.allow("192.168.1.1")

	time.Sleep(100 * time.Millisecond)
	rl.cleanup()

	rl.mu.Lock()
	_, exists := rl.requests["192.168.1.1"]
	rl.mu.Unlock()
	if exists {
		t.Error("expected IP to be dropped after cleanup")
	}
}

func TestRateLimiterMultipleClose(t *testing.T) {
	rl, err := NewRateLimiter(10, nil)
	if err != nil {
		t.Fatalf("failed to create rate limiter: %v", err)
	}

	rl.Close()
	rl.Close()
}
