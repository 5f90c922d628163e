package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/subtrackr/subtrackr/internal/model"
)

// Summaries live in one hash per user, one field per calendar day, so a
// single DEL invalidates every cached day after a write.
const summaryKeyPrefix = "summary:"

// DefaultSummaryTTL bounds how long a cached summary can be served.
const DefaultSummaryTTL = 5 * time.Minute

func summaryKey(userID string) string {
	return summaryKeyPrefix + userID
}

// GetDashboard returns the cached summary for userID on day (YYYY-MM-DD).
// Returns ErrCacheMiss if absent or corrupted.
func (c *Cache) GetDashboard(ctx context.Context, userID, day string) (*model.Dashboard, error) {
	data, err := c.client.HGet(ctx, summaryKey(userID), day).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis hget failed: %w", err)
	}

	var d model.Dashboard
	if err := json.Unmarshal(data, &d); err != nil {
		// Corrupted entry, treat as miss.
		return nil, ErrCacheMiss
	}
	return &d, nil
}

// SetDashboard caches a summary under its user and day.
func (c *Cache) SetDashboard(ctx context.Context, d *model.Dashboard, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultSummaryTTL
	}

	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	key := summaryKey(d.UserID)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, d.Day, data)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache summary: %w", err)
	}
	return nil
}

// InvalidateDashboard drops every cached summary for userID.
func (c *Cache) InvalidateDashboard(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, summaryKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate summary: %w", err)
	}
	return nil
}
