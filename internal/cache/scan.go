package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	lastScanKey = "scan:last"
	// lastScanTTL keeps a report around for a couple of daily runs.
	lastScanTTL = 72 * time.Hour
)

// SetLastScan stores the most recent scan report. It is informational and
// is never read back to decide whether to send.
func (c *Cache) SetLastScan(ctx context.Context, report any) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode scan report: %w", err)
	}
	if err := c.client.Set(ctx, lastScanKey, data, lastScanTTL).Err(); err != nil {
		return fmt.Errorf("failed to store scan report: %w", err)
	}
	return nil
}

// LastScan decodes the most recent scan report into dst.
// Returns ErrCacheMiss when no scan has been recorded.
func (c *Cache) LastScan(ctx context.Context, dst any) error {
	data, err := c.client.Get(ctx, lastScanKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("redis get failed: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode scan report: %w", err)
	}
	return nil
}
