// Package cache keeps recently computed pattern analyses in Redis so hot
// lights are not re-analyzed on every request. Entries are short-lived and
// dropped on any write that changes a light's capture set. The cache is
// optional: callers run without one and simply recompute.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/greenwave-dev/greenwave/pkg/pattern"
)

// TTL bounds how stale a served analysis can be.
const TTL = 5 * time.Minute

// Cache wraps a Redis client, one entry per light under pattern:{light_id}.
type Cache struct {
	client *redis.Client
	logger *slog.Logger
}

// New connects to Redis at addr and verifies the connection before use.
func New(ctx context.Context, addr string, logger *slog.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:       addr,
		PoolSize:   50,
		MaxRetries: 3,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}

	logger.Debug("Cache connected", "addr", addr)
	return &Cache{client: client, logger: logger}, nil
}

// Close releases the Redis connection pool.
func (c *Cache) Close() error {
	return c.client.Close()
}

func key(lightID string) string {
	return "pattern:" + lightID
}

// SaveAnalysis stores a light's serialized analysis for TTL.
func (c *Cache) SaveAnalysis(ctx context.Context, lightID string, analysis pattern.Analysis) error {
	data, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	if err := c.client.Set(ctx, key(lightID), data, TTL).Err(); err != nil {
		return fmt.Errorf("cache analysis for %s: %w", lightID, err)
	}
	return nil
}

// Analysis returns the cached analysis for a light, or nil on a miss. Redis
// trouble degrades to a miss so the API stays up and recomputes.
func (c *Cache) Analysis(ctx context.Context, lightID string) *pattern.Analysis {
	val, err := c.client.Get(ctx, key(lightID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		c.logger.Warn("Cache read failed", "light_id", lightID, "error", err)
		return nil
	}

	var analysis pattern.Analysis
	if err := json.Unmarshal([]byte(val), &analysis); err != nil {
		c.logger.Warn("Cache entry corrupt, discarding", "light_id", lightID, "error", err)
		return nil
	}
	return &analysis
}

// Invalidate drops a light's cached analysis. Failures are logged, not
// returned: the entry expires on its own within TTL anyway.
func (c *Cache) Invalidate(ctx context.Context, lightID string) {
	if err := c.client.Del(ctx, key(lightID)).Err(); err != nil {
		c.logger.Warn("Cache invalidation failed", "light_id", lightID, "error", err)
	}
}
