/*
Package archive implements immutable, versioned, hash-validated
serialized snapshots of domain entities (spec.md §4.4): mail messages,
calendar containers, address-book containers, and every other document
the batch transaction engine writes as a single value.

There is no teacher equivalent of a generic archive type; the shape is
grounded on the content-hash-plus-timestamp caching idea in
pkg/security/ca.go's CachedCert, generalized from an in-memory
certificate cache to an on-disk encoding with three discriminated
kinds:

  - Unversioned: the raw serialized body, no hash or change id. Used
    for values nothing ever asserts against (configuration rows,
    counters-as-archives).
  - Hashed: body plus a 32-bit content hash, used as an ETag and for
    optimistic-concurrency assertion via internal/batch's AssertValue.
  - Versioned: Hashed plus an 8-byte change id, for archives owned by a
    sync collection whose change_id must never exceed the account's
    highest_change_id.

The wire format is one discriminator byte followed by the fixed-width
header fields for that kind, followed by the encoding/json body — the
same serialization choice the teacher makes throughout pkg/storage and
pkg/manager/fsm.go's snapshot format.
*/
package archive
