// Package ratelimit 提供按标识计数的窗口限流
//
// 每个标识在一个窗口内计数，窗口到期后下一次请求重新从 1 开始计数。
// 计数存储通过 Store 注入：MemoryStore 只在单进程内有效，多实例部署需使用 Redis 实现。
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
)

// Store 限流计数存储
type Store interface {
	// Incr 原子地增加计数；条目不存在或已过期时以 1 重新开始，ResetAt = now + window
	Incr(ctx context.Context, key string, window time.Duration) (entity.RateLimitEntry, error)
	// Get 只读获取条目，不存在或已过期时 ok 为 false
	Get(ctx context.Context, key string) (entity.RateLimitEntry, bool, error)
}

// Result Check 的结果
type Result struct {
	Allowed   bool      `json:"allowed"`
	Limit     int       `json:"limit"`
	Count     int       `json:"count"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"resetAt"`
}

// Status Status 的结果
type Status struct {
	Limit     int       `json:"limit"`
	Count     int       `json:"count"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"resetAt,omitempty"`
}

// Limiter 单个用途的限流器（api / ai / upload 各一个实例）
type Limiter struct {
	name   string
	store  Store
	limit  int
	window time.Duration
}

// New 创建限流器
func New(name string, store Store, limit int, window time.Duration) *Limiter {
	return &Limiter{
		name:   name,
		store:  store,
		limit:  limit,
		window: window,
	}
}

// Name 限流器名称
func (l *Limiter) Name() string {
	return l.name
}

// Limit 每窗口上限
func (l *Limiter) Limit() int {
	return l.limit
}

// Window 窗口长度
func (l *Limiter) Window() time.Duration {
	return l.window
}

// Check 计数加一并判断是否放行，count <= limit 时放行
func (l *Limiter) Check(ctx context.Context, identifier string) (Result, error) {
	entry, err := l.store.Incr(ctx, l.key(identifier), l.window)
	if err != nil {
		return Result{}, fmt.Errorf("rate limit %s: %w", l.name, err)
	}
	return Result{
		Allowed:   entry.Count <= l.limit,
		Limit:     l.limit,
		Count:     entry.Count,
		Remaining: remaining(l.limit, entry.Count),
		ResetAt:   entry.ResetAt,
	}, nil
}

// Status 只读查询当前窗口状态
func (l *Limiter) Status(ctx context.Context, identifier string) (Status, error) {
	entry, ok, err := l.store.Get(ctx, l.key(identifier))
	if err != nil {
		return Status{}, fmt.Errorf("rate limit %s: %w", l.name, err)
	}
	if !ok {
		return Status{Limit: l.limit, Remaining: l.limit}, nil
	}
	return Status{
		Limit:     l.limit,
		Count:     entry.Count,
		Remaining: remaining(l.limit, entry.Count),
		ResetAt:   entry.ResetAt,
	}, nil
}

func (l *Limiter) key(identifier string) string {
	return "ratelimit:" + l.name + ":" + identifier
}

func remaining(limit, count int) int {
	if count >= limit {
		return 0
	}
	return limit - count
}

// Set 按用途索引的限流器集合
type Set map[string]*Limiter

// 预定义用途
const (
	ScopeAPI    = "api"
	ScopeAI     = "ai"
	ScopeUpload = "upload"
)

// Get 获取指定用途的限流器
func (s Set) Get(scope string) (*Limiter, bool) {
	l, ok := s[scope]
	return l, ok
}
