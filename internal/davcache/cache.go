package davcache

import (
	"sync"

	"github.com/cuemby/storectl/pkg/metrics"
)

type cacheKey struct {
	account    uint32
	collection uint8
}

// keyState is the per-(account, collection) single-writer semaphore
// spec.md §4.9 calls for: Fetch holds update while it refreshes, so
// two concurrent callers for the same pair refresh it once rather
// than racing two rebuilds, while callers for other pairs proceed
// independently.
type keyState struct {
	update   sync.Mutex
	snapshot *Snapshot // nil until the first build
}

// Cache holds one Snapshot per (account, collection) pair, refreshed
// through Fetch.
type Cache struct {
	source Source

	mu    sync.Mutex
	byKey map[cacheKey]*keyState
}

// NewCache returns an empty Cache backed by source.
func NewCache(source Source) *Cache {
	return &Cache{
		source: source,
		byKey:  make(map[cacheKey]*keyState),
	}
}

func (c *Cache) stateFor(key cacheKey) *keyState {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.byKey[key]
	if !ok {
		st = &keyState{}
		c.byKey[key] = st
	}
	return st
}

// Invalidate drops the cached snapshot for (account, collection),
// forcing the next Fetch to rebuild from scratch.
func (c *Cache) Invalidate(account uint32, collection uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byKey, cacheKey{account, collection})
}

// InvalidateAccount drops every cached snapshot belonging to account,
// across all of its collections. A principal-cache invalidation
// (spec.md §4.8's invalidate_principal_caches names "groupware caches"
// alongside access tokens) has no single collection to target, so it
// calls this instead of Invalidate.
func (c *Cache) InvalidateAccount(account uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.byKey {
		if key.account == account {
			delete(c.byKey, key)
		}
	}
}

// entries reports the number of cached snapshots, for
// metrics.DAVCacheEntries.
func (c *Cache) entries() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byKey)
}

func (c *Cache) observeEntries() {
	metrics.DAVCacheEntries.Set(float64(c.entries()))
}
