// Package accesstoken implements the access-token & permission cache:
// a derived, per-principal snapshot of memberships, shared access and
// expanded permissions, rebuilt from storage on a cache miss and held
// until its TTL passes or an explicit Invalidate call evicts it.
//
// Cache.Get follows the teacher's join-token manager
// (cuemby-warren/pkg/manager/token.go's map + sync.RWMutex) generalized
// with a single-flight build guard: concurrent callers that miss on
// the same principal share one in-flight Build call instead of each
// issuing a redundant storage walk.
package accesstoken
