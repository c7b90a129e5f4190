package accesstoken

import (
	"context"
	"sync"
	"time"

	"github.com/cuemby/storectl/pkg/metrics"
)

// Builder builds a fresh AccessToken for principal on a cache miss.
type Builder func(ctx context.Context, principal uint32) (*AccessToken, error)

type cacheEntry struct {
	token     *AccessToken
	expiresAt time.Time
}

// buildCall tracks one in-flight Build so concurrent Get calls for the
// same principal share its result instead of racing duplicate builds —
// the `get_value_or_guard_async` pattern spec.md §4.8 names.
type buildCall struct {
	wg    sync.WaitGroup
	token *AccessToken
	err   error
}

// Cache is the access-token cache: a map guarded by a mutex, the same
// shape as cuemby-warren/pkg/manager/token.go's TokenManager, extended
// with single-flight build coalescing and a TTL-based expiry sweep in
// place of the teacher's unconditional join-token lifetime.
type Cache struct {
	mu       sync.Mutex
	entries  map[uint32]cacheEntry
	inflight map[uint32]*buildCall

	build Builder
	ttl   time.Duration
}

// NewCache returns an empty Cache that builds misses via build and
// holds each token for ttl.
func NewCache(build Builder, ttl time.Duration) *Cache {
	return &Cache{
		entries:  make(map[uint32]cacheEntry),
		inflight: make(map[uint32]*buildCall),
		build:    build,
		ttl:      ttl,
	}
}

// Get returns principal's cached token, building it on a miss.
func (c *Cache) Get(ctx context.Context, principal uint32) (*AccessToken, error) {
	c.mu.Lock()
	if e, ok := c.entries[principal]; ok && time.Now().Before(e.expiresAt) {
		c.mu.Unlock()
		metrics.AccessTokenCacheHitsTotal.Inc()
		return e.token, nil
	}

	if call, ok := c.inflight[principal]; ok {
		c.mu.Unlock()
		call.wg.Wait()
		return call.token, call.err
	}

	call := &buildCall{}
	call.wg.Add(1)
	c.inflight[principal] = call
	c.mu.Unlock()

	metrics.AccessTokenCacheMissesTotal.Inc()
	timer := metrics.NewTimer()
	token, err := c.build(ctx, principal)
	timer.ObserveDuration(metrics.AccessTokenBuildDuration)

	c.mu.Lock()
	delete(c.inflight, principal)
	if err == nil {
		c.entries[principal] = cacheEntry{token: token, expiresAt: time.Now().Add(c.ttl)}
	}
	c.mu.Unlock()

	call.token, call.err = token, err
	call.wg.Done()
	return token, err
}

// Invalidate evicts principals from the cache, per spec.md §4.8's
// invalidate_principal_caches: a subsequent Get rebuilds with a fresh
// revision stamp.
func (c *Cache) Invalidate(principals ...uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range principals {
		delete(c.entries, p)
	}
}

// Sweep evicts every entry past its TTL, mirroring
// TokenManager.CleanupExpiredTokens.
func (c *Cache) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for p, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, p)
		}
	}
}
