/*
Package blob implements the content-addressed byte store of spec.md
§4.5. Bytes are identified by the 64-bit xxhash digest of their
content (the same hash family internal/keys and internal/storage use
elsewhere), written once under a sharded path, and read back by range.

Link bookkeeping — which hashes are reachable, and from where — is not
this package's job: owner links, temporary links, and pending-quota
rows live in internal/storage's BlobLink/BlobQuota/BlobCommit
subspaces and are written through internal/batch like any other
mutation, so they participate in the same optimistic-concurrency and
commit-point durability rules as everything else. This package only
ever sees a content hash and a stream of bytes; it has no notion of
account, collection, or document.

Store generalizes pkg/volume/local.go's LocalDriver (Create/Delete/
Mount/GetPath against a base directory) from named, mutable volumes to
immutable, content-addressed blobs. Sweeper reuses the ticker-loop
shape of pkg/reconciler/reconciler.go's run/stopCh to periodically
remove blobs whose commit row has no remaining owner or temporary
link.
*/
package blob
