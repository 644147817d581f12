package redis

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return Wrap(rdb), mr
}

func TestRateLimitStoreIncrAndExpire(t *testing.T) {
	client, mr := newTestClient(t)
	store := NewRateLimitStore(client)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		entry, err := store.Incr(ctx, "ratelimit:ai:ip:1.1.1.1", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, entry.Count)
		assert.WithinDuration(t, time.Now().Add(time.Minute), entry.ResetAt, 2*time.Second)
	}

	entry, ok, err := store.Get(ctx, "ratelimit:ai:ip:1.1.1.1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, entry.Count)

	mr.FastForward(time.Minute + time.Second)

	_, ok, err = store.Get(ctx, "ratelimit:ai:ip:1.1.1.1")
	require.NoError(t, err)
	assert.False(t, ok)

	entry, err = store.Incr(ctx, "ratelimit:ai:ip:1.1.1.1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Count)
}

func TestRateLimitStoreGetMissing(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewRateLimitStore(client)

	_, ok, err := store.Get(context.Background(), "ratelimit:api:nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGuestUsageStoreMarksOncePerDay(t *testing.T) {
	client, mr := newTestClient(t)
	store := NewGuestUsageStore(client)
	ctx := context.Background()
	day := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

	used, err := store.IsUsed(ctx, "guest-1", "generate", day)
	require.NoError(t, err)
	assert.False(t, used)

	first, err := store.MarkUsed(ctx, "guest-1", "generate", day)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := store.MarkUsed(ctx, "guest-1", "generate", day)
	require.NoError(t, err)
	assert.False(t, second)

	used, err = store.IsUsed(ctx, "guest-1", "generate", day)
	require.NoError(t, err)
	assert.True(t, used)

	used, err = store.IsUsed(ctx, "guest-1", "refine", day)
	require.NoError(t, err)
	assert.False(t, used)

	ttl := mr.TTL(guestKey("guest-1", "generate", day))
	assert.Equal(t, 6*time.Hour, ttl)

	used, err = store.IsUsed(ctx, "guest-1", "generate", day.Add(24*time.Hour))
	require.NoError(t, err)
	assert.False(t, used)
}

func TestCacheGetOrLoad(t *testing.T) {
	client, _ := newTestClient(t)
	cache := NewCache(client, "stock:")
	ctx := context.Background()

	var calls atomic.Int32
	loader := func(context.Context) (string, error) {
		calls.Add(1)
		return "https://images.example/cat.jpg", nil
	}

	v, err := cache.GetOrLoad(ctx, "cat", time.Hour, loader)
	require.NoError(t, err)
	assert.Equal(t, "https://images.example/cat.jpg", v)

	v, err = cache.GetOrLoad(ctx, "cat", time.Hour, loader)
	require.NoError(t, err)
	assert.Equal(t, "https://images.example/cat.jpg", v)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCacheGetOrLoadDoesNotCacheEmptyOrErrors(t *testing.T) {
	client, _ := newTestClient(t)
	cache := NewCache(client, "stock:")
	ctx := context.Background()

	var calls atomic.Int32
	_, err := cache.GetOrLoad(ctx, "dog", time.Hour, func(context.Context) (string, error) {
		calls.Add(1)
		return "", errors.New("upstream down")
	})
	require.Error(t, err)

	v, err := cache.GetOrLoad(ctx, "dog", time.Hour, func(context.Context) (string, error) {
		calls.Add(1)
		return "", nil
	})
	require.NoError(t, err)
	assert.Empty(t, v)

	_, err = cache.GetOrLoad(ctx, "dog", time.Hour, func(context.Context) (string, error) {
		calls.Add(1)
		return "x", nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHealthCheck(t *testing.T) {
	client, mr := newTestClient(t)
	require.NoError(t, client.HealthCheck(context.Background()))

	mr.Close()
	assert.Error(t, client.HealthCheck(context.Background()))
}
