// Package davcache implements the groupware resource cache: a
// DavResources snapshot per (account, sync-collection) pairing the
// flat resource list with its hierarchical path namespace, refreshed
// incrementally off internal/changelog rather than a full rescan on
// every fetch.
//
// Fetch's incremental-refresh loop is cuemby-warren/pkg/reconciler/
// reconciler.go's per-cycle reconcile shape, with the teacher's
// Manager.ListNodes/ListContainers calls replaced by
// internal/changelog.Changes: instead of polling every entity on a
// fixed ticker, the cache asks the change log what moved since its
// last snapshot and only refetches those ids. Concrete path-layout
// rules (nested for file trees, two-level for calendars/address-books,
// synthetic for calendar-event-notifications) are protocol-specific
// knowledge this storage core does not own; buildPaths implements the
// generic parent-chain case every layout reduces to, and a caller
// supplying Source can shape Resource.Name/ParentID to express any of
// the protocol-specific layouts on top of it.
package davcache
