// Package directory implements the principal/group membership edges
// spec.md §3 describes: a principal's MemberOf set and a group's
// Members set, always written together so the two sides never drift.
//
// internal/accesstoken already walks MemberOf directly when it builds
// one principal's token (internal/accesstoken/build.go's
// loadMemberships); this package owns the write side of that edge and
// the inverse Members walk a group or tenant change needs to fan
// invalidation out to every affected principal.
package directory
