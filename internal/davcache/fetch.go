package davcache

import (
	"context"

	"github.com/cuemby/storectl/internal/changelog"
	"github.com/cuemby/storectl/internal/storage"
	"github.com/cuemby/storectl/pkg/metrics"
)

// Fetch returns the current Snapshot for (account, collection),
// refreshing it first per spec.md §4.9:
//
//  1. Load the prior snapshot, if any.
//  2. Ask internal/changelog.Changes what moved since its highest
//     change id.
//  3. If the answer is truncated, rebuild from scratch.
//  4. Otherwise fetch archives for inserted/updated ids, drop deleted
//     ids, and rebuild the path hierarchy only if an operation
//     affects a container (a name/parent-linkage change); otherwise
//     keep the prior Paths map.
//  5. Swap the snapshot in under the per-key update semaphore.
func (c *Cache) Fetch(ctx context.Context, store storage.Engine, account uint32, collection uint8) (*Snapshot, error) {
	key := cacheKey{account, collection}
	st := c.stateFor(key)

	st.update.Lock()
	defer st.update.Unlock()

	if st.snapshot == nil {
		snap, err := c.rebuild(ctx, account, collection)
		if err != nil {
			return nil, err
		}
		st.snapshot = snap
		metrics.DAVCacheRebuildsTotal.Inc()
		c.observeEntries()
		return st.snapshot, nil
	}

	result, err := changelog.Changes(ctx, store, account, collection, st.snapshot.HighestChangeID)
	if err != nil {
		return nil, err
	}

	if result.IsTruncated {
		snap, err := c.rebuild(ctx, account, collection)
		if err != nil {
			return nil, err
		}
		st.snapshot = snap
		metrics.DAVCacheRebuildsTotal.Inc()
		c.observeEntries()
		return st.snapshot, nil
	}

	if len(result.Changes) == 0 {
		return st.snapshot, nil
	}

	next, err := c.applyIncremental(ctx, st.snapshot, result)
	if err != nil {
		return nil, err
	}
	st.snapshot = next
	return st.snapshot, nil
}

func (c *Cache) rebuild(ctx context.Context, account uint32, collection uint8) (*Snapshot, error) {
	resources, err := c.source.ScanAll(ctx, account, collection)
	if err != nil {
		return nil, err
	}

	snap := newSnapshot(account, collection)
	for _, r := range resources {
		snap.Resources[r.ID] = r
	}
	snap.Paths = buildPaths(snap.Resources)
	return snap, nil
}

func (c *Cache) applyIncremental(ctx context.Context, prior *Snapshot, result *changelog.Result) (*Snapshot, error) {
	next := prior.clone()

	var refetch []uint32
	rebuildHierarchy := false

	for _, entry := range result.Changes {
		switch entry.Kind {
		case changelog.DeleteItem, changelog.DeleteContainer:
			delete(next.Resources, entry.DocumentID)
			delete(next.Paths, entry.DocumentID)
			if entry.Kind == changelog.DeleteContainer {
				rebuildHierarchy = true
			}
		default:
			refetch = append(refetch, entry.DocumentID)
			if entry.Kind.IsContainer() {
				rebuildHierarchy = true
			}
		}
	}

	if len(refetch) > 0 {
		fetched, err := c.source.FetchByIDs(ctx, prior.Account, prior.Collection, refetch)
		if err != nil {
			return nil, err
		}
		for _, r := range fetched {
			next.Resources[r.ID] = r
		}
	}

	if rebuildHierarchy {
		next.Paths = buildPaths(next.Resources)
	}

	if result.ToChangeID > next.HighestChangeID {
		next.HighestChangeID = result.ToChangeID
	}
	return next, nil
}
