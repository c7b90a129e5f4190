// Package acl implements the rights-bitmap access check spec.md §4.12
// describes: container-level rights stored on the ACL subspace,
// inherited by every item in that container, evaluated against an
// accesstoken.AccessToken's owner/member and shared-access state.
//
// internal/accesstoken.AccessToken.HasAccess already answers the
// coarse "is to_account visible to this principal at all" question
// (spec.md's has_access). This package answers the finer question a
// visible collection still needs answered once (spec.md: "Container-
// level rights are stored on the container archive; per-item rights
// are inherited from the container") — which specific rights
// (read/write/admin, see Rights) a shared, non-owning principal holds
// over one collection.
package acl
