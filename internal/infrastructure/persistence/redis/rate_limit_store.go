package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
)

// incrScript 原子地计数：首次计数时设置窗口过期时间，返回 {count, pttl}
var incrScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RateLimitStore 基于 Redis 的限流计数存储，多实例共享
type RateLimitStore struct {
	client *Client
	now    func() time.Time
}

// NewRateLimitStore 创建 Redis 限流存储
func NewRateLimitStore(client *Client) *RateLimitStore {
	return &RateLimitStore{client: client, now: time.Now}
}

// Incr 实现 ratelimit.Store
func (s *RateLimitStore) Incr(ctx context.Context, key string, window time.Duration) (entity.RateLimitEntry, error) {
	ctx, span := tracer.Start(ctx, "ratelimit.Incr")
	span.SetAttributes(
		attribute.String("ratelimit.key", key),
		attribute.Int64("ratelimit.window_ms", window.Milliseconds()),
	)
	defer span.End()

	vals, err := incrScript.Run(ctx, s.client.rdb, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		span.RecordError(err)
		return entity.RateLimitEntry{}, fmt.Errorf("failed to increment %s: %w", key, err)
	}
	if len(vals) != 2 {
		return entity.RateLimitEntry{}, fmt.Errorf("unexpected script reply for %s", key)
	}

	span.SetAttributes(attribute.Int64("ratelimit.current_count", vals[0]))
	return entity.RateLimitEntry{
		Count:   int(vals[0]),
		ResetAt: s.now().Add(time.Duration(vals[1]) * time.Millisecond),
	}, nil
}

// Get 实现 ratelimit.Store
func (s *RateLimitStore) Get(ctx context.Context, key string) (entity.RateLimitEntry, bool, error) {
	ctx, span := tracer.Start(ctx, "ratelimit.Get")
	span.SetAttributes(attribute.String("ratelimit.key", key))
	defer span.End()

	pipe := s.client.rdb.Pipeline()
	getCmd := pipe.Get(ctx, key)
	ttlCmd := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && !IsNil(err) {
		span.RecordError(err)
		return entity.RateLimitEntry{}, false, err
	}

	count, err := getCmd.Int()
	if err != nil {
		if IsNil(err) {
			return entity.RateLimitEntry{}, false, nil
		}
		return entity.RateLimitEntry{}, false, err
	}
	ttl := ttlCmd.Val()
	if ttl <= 0 {
		return entity.RateLimitEntry{}, false, nil
	}
	return entity.RateLimitEntry{Count: count, ResetAt: s.now().Add(ttl)}, true, nil
}
