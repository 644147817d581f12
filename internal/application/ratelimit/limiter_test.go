package ratelimit

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T) (*MemoryStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(0)
	store.now = clock.Now
	t.Cleanup(func() { _ = store.Close() })
	return store, clock
}

func TestCheckCountsWithinWindow(t *testing.T) {
	store, clock := newTestStore(t)
	l := New(ScopeAI, store, 3, time.Minute)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		res, err := l.Check(ctx, "ip:1.2.3.4")
		require.NoError(t, err)
		assert.Equal(t, i, res.Count)
		assert.Equal(t, i <= 3, res.Allowed, "call %d", i)
		assert.Equal(t, clock.Now().Add(time.Minute), res.ResetAt)
	}

	res, err := l.Check(ctx, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Remaining)
}

func TestCheckResetsAfterWindow(t *testing.T) {
	store, clock := newTestStore(t)
	l := New(ScopeAPI, store, 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := l.Check(ctx, "session:abc")
		require.NoError(t, err)
	}

	clock.Advance(time.Minute)

	res, err := l.Check(ctx, "session:abc")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)
}

func TestStatusIsReadOnly(t *testing.T) {
	store, _ := newTestStore(t)
	l := New(ScopeUpload, store, 5, time.Minute)
	ctx := context.Background()

	st, err := l.Status(ctx, "ip:9.9.9.9")
	require.NoError(t, err)
	assert.Equal(t, 0, st.Count)
	assert.Equal(t, 5, st.Remaining)
	assert.True(t, st.ResetAt.IsZero())

	_, err = l.Check(ctx, "ip:9.9.9.9")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		st, err = l.Status(ctx, "ip:9.9.9.9")
		require.NoError(t, err)
		assert.Equal(t, 1, st.Count)
		assert.Equal(t, 4, st.Remaining)
	}
}

func TestLimitersAreIsolatedByScope(t *testing.T) {
	store, _ := newTestStore(t)
	api := New(ScopeAPI, store, 1, time.Minute)
	ai := New(ScopeAI, store, 1, time.Minute)
	ctx := context.Background()

	res, err := api.Check(ctx, "ip:1.1.1.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = ai.Check(ctx, "ip:1.1.1.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestSweepRemovesExpired(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	_, err := store.Incr(ctx, "a", time.Second)
	require.NoError(t, err)
	_, err = store.Incr(ctx, "b", time.Hour)
	require.NoError(t, err)

	clock.Advance(2 * time.Second)

	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 1, store.Len())
}

func TestConcurrentChecksNeverOvercount(t *testing.T) {
	store, _ := newTestStore(t)
	l := New(ScopeAI, store, 50, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := l.Check(ctx, "ip:2.2.2.2")
			if err == nil && res.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, allowed)
	st, err := l.Status(ctx, "ip:2.2.2.2")
	require.NoError(t, err)
	assert.Equal(t, 200, st.Count)
}

func TestBackgroundSweepStopsOnClose(t *testing.T) {
	store := NewMemoryStore(5 * time.Millisecond)
	_, err := store.Incr(context.Background(), "k", time.Millisecond)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}

func TestResolveIdentifierPriority(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.5:4321"
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	r.Header.Set("X-Real-IP", "198.51.100.2")

	assert.Equal(t, "session:s1", ResolveIdentifier(r, "s1"))
	assert.Equal(t, "ip:203.0.113.7", ResolveIdentifier(r, ""))

	r.Header.Del("X-Forwarded-For")
	assert.Equal(t, "ip:198.51.100.2", ResolveIdentifier(r, ""))

	r.Header.Del("X-Real-IP")
	assert.Equal(t, "ip:10.0.0.5", ResolveIdentifier(r, ""))

	r.RemoteAddr = ""
	r.Header.Set("User-Agent", "Mozilla/5.0")
	r.Header.Set("Accept-Language", "sv-SE")
	first := ResolveIdentifier(r, "")
	assert.Regexp(t, `^anon:[0-9a-f]{16}$`, first)
	assert.Equal(t, first, ResolveIdentifier(r, ""))

	r.Header.Set("Accept-Language", "en-US")
	assert.NotEqual(t, first, ResolveIdentifier(r, ""))
}
