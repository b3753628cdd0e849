// internal/cache/status_test.go
package cache

import (
	"context"
	"testing"
	"time"

	"provider-workflow/internal/common/logger"
	"provider-workflow/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*StatusCounts, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewStatusCounts(client, time.Minute, logger.NewTestLogger(t)), mr
}

func TestStatusCounts_GetMissWhenCold(t *testing.T) {
	cache, _ := newTestCache(t)

	_, warm := cache.Get(context.Background())
	assert.False(t, warm)
}

func TestStatusCounts_SetThenGet(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, models.StatusCounts{Pending: 4, Approved: 10, Rejected: 2})

	counts, warm := cache.Get(ctx)
	require.True(t, warm)
	assert.Equal(t, models.StatusCounts{Pending: 4, Approved: 10, Rejected: 2}, counts)
}

func TestStatusCounts_SetAppliesTTL(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, models.StatusCounts{Pending: 1})
	assert.InDelta(t, time.Minute, mr.TTL(countsKey), float64(time.Second))

	mr.FastForward(2 * time.Minute)

	_, warm := cache.Get(ctx)
	assert.False(t, warm)
}

func TestStatusCounts_Invalidate(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, models.StatusCounts{Pending: 1})
	cache.Invalidate(ctx)

	_, warm := cache.Get(ctx)
	assert.False(t, warm)
}

func TestStatusCounts_MalformedEntryIsMiss(t *testing.T) {
	cache, mr := newTestCache(t)

	require.NoError(t, mr.Set(countsKey, "not-json"))

	_, warm := cache.Get(context.Background())
	assert.False(t, warm)
}

func TestStatusCounts_ServerDownIsMiss(t *testing.T) {
	cache, mr := newTestCache(t)
	mr.Close()

	_, warm := cache.Get(context.Background())
	assert.False(t, warm)

	// Writes degrade silently too.
	cache.Set(context.Background(), models.StatusCounts{Pending: 1})
	cache.Invalidate(context.Background())
}
