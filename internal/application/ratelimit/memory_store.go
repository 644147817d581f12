package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
)

// MemoryStore 进程内计数存储，使用互斥锁保护，后台定期清理过期条目
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entity.RateLimitEntry
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewMemoryStore 创建内存存储，sweepInterval <= 0 时不启动后台清理
func NewMemoryStore(sweepInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]entity.RateLimitEntry),
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	if sweepInterval > 0 {
		go s.sweepLoop(sweepInterval)
	} else {
		close(s.done)
	}
	return s
}

// Incr 实现 Store
func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (entity.RateLimitEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry, ok := s.entries[key]
	if !ok || entry.Expired(now) {
		entry = entity.RateLimitEntry{Count: 0, ResetAt: now.Add(window)}
	}
	entry.Count++
	s.entries[key] = entry
	return entry, nil
}

// Get 实现 Store
func (s *MemoryStore) Get(_ context.Context, key string) (entity.RateLimitEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || entry.Expired(s.now()) {
		return entity.RateLimitEntry{}, false, nil
	}
	return entry, true, nil
}

// Sweep 删除所有过期条目，返回删除数量
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, entry := range s.entries {
		if entry.Expired(now) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Len 当前条目数
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close 停止后台清理
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
	return nil
}

func (s *MemoryStore) sweepLoop(interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stop:
			return
		}
	}
}
