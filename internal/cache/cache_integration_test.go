//go:build integration

package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/subtrackr/subtrackr/internal/model"
	"github.com/subtrackr/subtrackr/internal/testutil"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	ctx := context.Background()

	c, err := New(ctx, testutil.RequireEnv(t, "REDIS_URL"))
	if err != nil {
		t.Skipf("Skipping integration test: Redis not available: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if err := testutil.FlushRedis(ctx, c.Client()); err != nil {
		t.Fatalf("flush redis: %v", err)
	}
	return c
}

func TestDashboardRoundTripAndInvalidate(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if _, err := c.GetDashboard(ctx, "u1", "2024-06-01"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss, got %v", err)
	}

	d := &model.Dashboard{
		UserID:       "u1",
		Day:          "2024-06-01",
		Month:        "2024-06",
		MonthlyTotal: decimal.RequireFromString("40"),
	}
	if err := c.SetDashboard(ctx, d, time.Minute); err != nil {
		t.Fatalf("SetDashboard: %v", err)
	}

	got, err := c.GetDashboard(ctx, "u1", "2024-06-01")
	if err != nil {
		t.Fatalf("GetDashboard: %v", err)
	}
	if !got.MonthlyTotal.Equal(d.MonthlyTotal) {
		t.Errorf("MonthlyTotal = %s, want %s", got.MonthlyTotal, d.MonthlyTotal)
	}

	if err := c.InvalidateDashboard(ctx, "u1"); err != nil {
		t.Fatalf("InvalidateDashboard: %v", err)
	}
	if _, err := c.GetDashboard(ctx, "u1", "2024-06-01"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected miss after invalidate, got %v", err)
	}
}

func TestLastScan(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	var dst map[string]any
	if err := c.LastScan(ctx, &dst); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss, got %v", err)
	}

	if err := c.SetLastScan(ctx, map[string]any{"partial": false}); err != nil {
		t.Fatalf("SetLastScan: %v", err)
	}
	if err := c.LastScan(ctx, &dst); err != nil {
		t.Fatalf("LastScan: %v", err)
	}
	if dst["partial"] != false {
		t.Errorf("partial = %v", dst["partial"])
	}
}

func TestUserRateLimitConcurrency(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	rpm, burst := 10, 5
	var allowed, rejected int64

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 3; j++ {
				res, err := c.CheckUserRateLimit(ctx, "user-concurrent", rpm, burst)
				if err != nil {
					t.Errorf("CheckUserRateLimit: %v", err)
					return
				}
				if res.Allowed {
					atomic.AddInt64(&allowed, 1)
				} else {
					atomic.AddInt64(&rejected, 1)
				}
			}
		}()
	}
	wg.Wait()

	if allowed > int64(burst+rpm) {
		t.Errorf("too many requests allowed: %d", allowed)
	}
	if rejected == 0 {
		t.Error("expected some requests to be rejected")
	}
}
