/*
Package keys builds and parses the typed, byte-lexicographic keys every
other storage-core package persists under. Apart from one exception,
no package outside keys concatenates raw bytes into a key; everything
goes through a Builder so natural byte ordering always matches the
intended scan order. The exception is internal/batch's per-(account,
sync collection) change counter, whose key is the plain text
"changelog:<account>:<collection>" with no Subspace byte in front, so
no SubspaceRange scan covers it.

The teacher's pkg/storage/boltdb.go gives every entity kind its own
bbolt bucket (bucketNodes, bucketServices, ...) and relies on bbolt's
bucket namespacing to keep them apart. This package generalizes that
idea to a single flat keyspace: the first byte of every key is a
Subspace discriminator, so `iterate([d], [d+1))` enumerates exactly one
semantic class the same way a bucket scan would, but the same
underlying storage.Engine can host all of them.

# Layout

Fixed-width integer components (AccountID, Collection, DocumentID,
FieldID, ChangeID) are encoded big-endian so ordering-by-bytes equals
ordering-by-value. Variable-length text is inlined when short and
replaced by a stable 64-bit hash plus a one-byte collision counter when
it would blow out the key length, exactly as described for bounded
key components.
*/
package keys
