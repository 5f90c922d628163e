package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/subtrackr/subtrackr/internal/auth"
	"github.com/subtrackr/subtrackr/internal/cache"
)

// countingLimiter allows the first n checks per key.
type countingLimiter struct {
	allow int
	err   error
	seen  map[string]int
}

func newCountingLimiter(allow int) *countingLimiter {
	return &countingLimiter{allow: allow, seen: make(map[string]int)}
}

func (l *countingLimiter) check(key string) (*cache.RateLimitResult, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.seen[key]++
	used := l.seen[key]
	if used > l.allow {
		return &cache.RateLimitResult{Allowed: false, ResetAt: time.Now().Add(time.Second), RetryAfter: 3 * time.Second}, nil
	}
	return &cache.RateLimitResult{Allowed: true, Remaining: int64(l.allow - used), ResetAt: time.Now().Add(time.Second)}, nil
}

func (l *countingLimiter) CheckUserRateLimit(_ context.Context, userID string, _, _ int) (*cache.RateLimitResult, error) {
	return l.check("user:" + userID)
}

func (l *countingLimiter) CheckIPRateLimit(_ context.Context, ip string, _, _ int) (*cache.RateLimitResult, error) {
	return l.check("ip:" + ip)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func userRequest(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
	return req.WithContext(auth.ContextWithUserID(req.Context(), userID))
}

func TestRateLimitUser(t *testing.T) {
	limiter := newCountingLimiter(2)
	handler := RateLimitUser(RateLimitConfig{
		Logger:       discardLogger(),
		Limiter:      limiter,
		Enabled:      true,
		APIPerMinute: 120,
		APIBurst:     2,
	})(okHandler())

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, userRequest("u1"))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, rec.Code)
		}
		if rec.Header().Get("X-RateLimit-Limit") != "120" {
			t.Errorf("X-RateLimit-Limit = %q, want 120", rec.Header().Get("X-RateLimit-Limit"))
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, userRequest("u1"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "3" {
		t.Errorf("Retry-After = %q, want 3", rec.Header().Get("Retry-After"))
	}

	// Buckets are per user.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, userRequest("u2"))
	if rec.Code != http.StatusOK {
		t.Errorf("other user status = %d, want 200", rec.Code)
	}
}

func TestRateLimitUser_FailsOpen(t *testing.T) {
	limiter := newCountingLimiter(0)
	limiter.err = errors.New("redis: connection refused")

	handler := RateLimitUser(RateLimitConfig{
		Logger:       discardLogger(),
		Limiter:      limiter,
		Enabled:      true,
		APIPerMinute: 1,
	})(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, userRequest("u1"))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRateLimitUser_Disabled(t *testing.T) {
	limiter := newCountingLimiter(0)
	handler := RateLimitUser(RateLimitConfig{Logger: discardLogger(), Limiter: limiter})(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, userRequest("u1"))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if len(limiter.seen) != 0 {
		t.Error("limiter consulted while disabled")
	}
}

func TestRateLimitIP(t *testing.T) {
	limiter := newCountingLimiter(1)
	handler := RateLimitIP(RateLimitConfig{
		Logger:        discardLogger(),
		Limiter:       limiter,
		Enabled:       true,
		CronPerSecond: 1,
		CronBurst:     1,
	})(okHandler())

	newReq := func(remote string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/cron/notify", nil)
		req.RemoteAddr = remote
		return req
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newReq("10.0.0.1:5000"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	// Same host on another port shares the bucket.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, newReq("10.0.0.1:6000"))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		xri    string
		remote string
		want   string
	}{
		{"forwarded chain", "203.0.113.7, 10.0.0.1", "", "10.0.0.2:443", "203.0.113.7"},
		{"real ip", "", "203.0.113.8", "10.0.0.2:443", "203.0.113.8"},
		{"remote with port", "", "", "192.0.2.1:1234", "192.0.2.1"},
		{"remote without port", "", "", "192.0.2.1", "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
