package core

import (
	"context"

	"github.com/cuemby/storectl/internal/directory"
)

// InvalidatePrincipalCaches implements spec.md §4.8's
// invalidate_principal_caches(changed): for every changed principal it
// (a) evicts the principal from every local cache this core owns
// (access tokens, groupware caches), (b) transitively walks directory
// membership so a changed group or tenant also evicts its members,
// and (c) broadcasts InvalidateAccessTokens/InvalidateGroupwareCache
// to the rest of the cluster through h.Broadcast, if one is
// configured.
func (h *Handle) InvalidatePrincipalCaches(ctx context.Context, changed []uint32) error {
	affected := make(map[uint32]bool, len(changed))
	for _, id := range changed {
		members, err := directory.TransitiveMembers(ctx, h.Store, id)
		if err != nil {
			return err
		}
		for _, m := range members {
			affected[m] = true
		}
	}

	ids := make([]uint32, 0, len(affected))
	for id := range affected {
		ids = append(ids, id)
		h.AccessTokens.Invalidate(id)
		h.DAVCache.InvalidateAccount(id)
	}

	if h.Broadcast == nil {
		return nil
	}
	if err := h.Broadcast.Broadcast(BroadcastEvent{Kind: BroadcastInvalidateAccessTokens, PrincipalIDs: ids}); err != nil {
		return err
	}
	return h.Broadcast.Broadcast(BroadcastEvent{Kind: BroadcastInvalidateGroupwareCache, PrincipalIDs: ids})
}
