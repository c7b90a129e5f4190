package core

import "github.com/cuemby/storectl/internal/statemgr"

// BroadcastEventKind identifies which of the three cluster broadcast
// variants a BroadcastEvent carries.
type BroadcastEventKind int

const (
	// BroadcastInvalidateAccessTokens carries the principal ids whose
	// access-token cache entry every other node should evict.
	BroadcastInvalidateAccessTokens BroadcastEventKind = iota
	// BroadcastInvalidateGroupwareCache carries the principal ids whose
	// groupware (DAV) cache entries every other node should evict.
	BroadcastInvalidateGroupwareCache
	// BroadcastStateChange carries one committed mutation for every
	// other node's statemgr.Manager to re-publish locally.
	BroadcastStateChange
)

// BroadcastEvent is the cluster broadcast interface spec.md §6
// describes: BroadcastEvent::{InvalidateAccessTokens(ids),
// InvalidateGroupwareCache(ids), StateChange(payload)}. The gossip
// transport that actually ships these between nodes is a deployment
// concern this storage core does not own (see BroadcastSender); this
// type is only the shape of what crosses that boundary.
type BroadcastEvent struct {
	Kind BroadcastEventKind

	// PrincipalIDs is set for BroadcastInvalidateAccessTokens and
	// BroadcastInvalidateGroupwareCache.
	PrincipalIDs []uint32

	// StateChange is set for BroadcastStateChange.
	StateChange statemgr.StateChange
}

// BroadcastSender ships a BroadcastEvent to every other node in the
// cluster, the way statemgr.PushSender ships one StateChange to a
// push-registered subscriber. A deployment with no gossip transport
// wired leaves Dependencies.BroadcastSender nil; Handle.
// InvalidatePrincipalCaches still does its local cache eviction work,
// it just never hands the event to a sender.
type BroadcastSender interface {
	Broadcast(event BroadcastEvent) error
}
