// internal/cache/status.go
// Package cache holds the redis-backed status-counts cache for the admin
// listing. Cache faults always degrade to a direct store read.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"provider-workflow/internal/common/logger"
	"provider-workflow/internal/models"

	"github.com/redis/go-redis/v9"
)

const countsKey = "provider_applications:status_counts"

// StatusCounts caches the global per-status application totals.
type StatusCounts struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

// NewStatusCounts creates a counts cache with the given TTL.
func NewStatusCounts(client *redis.Client, ttl time.Duration, log logger.Logger) *StatusCounts {
	return &StatusCounts{
		client: client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "counts-cache"}),
	}
}

// Get returns the cached counts and whether the cache was warm.
func (c *StatusCounts) Get(ctx context.Context) (models.StatusCounts, bool) {
	raw, err := c.client.Get(ctx, countsKey).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("counts cache read failed", map[string]interface{}{"error": err.Error()})
		}
		return models.StatusCounts{}, false
	}

	var counts models.StatusCounts
	if err := json.Unmarshal([]byte(raw), &counts); err != nil {
		c.logger.Warn("counts cache entry malformed", map[string]interface{}{"error": err.Error()})
		return models.StatusCounts{}, false
	}

	return counts, true
}

// Set stores the counts with the configured TTL.
func (c *StatusCounts) Set(ctx context.Context, counts models.StatusCounts) {
	raw, err := json.Marshal(counts)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, countsKey, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("counts cache write failed", map[string]interface{}{"error": err.Error()})
	}
}

// Invalidate drops the cached counts; called after every transition.
func (c *StatusCounts) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, countsKey).Err(); err != nil {
		c.logger.Warn("counts cache invalidation failed", map[string]interface{}{"error": err.Error()})
	}
}
