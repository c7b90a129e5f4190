package blob

import (
	"time"

	"github.com/cuemby/storectl/internal/batch"
	"github.com/cuemby/storectl/internal/keys"
)

// Commit marks hash as having durable bytes in the blob backend. A
// caller writes this in the same commit point as Put succeeding, so a
// crash between the two never leaves a link pointing at missing bytes.
func Commit(b *batch.Batch, hash uint64) *batch.Batch {
	return b.PutRaw(keys.BlobCommitKey(hash), nil)
}

// Uncommit removes the presence row once the sweep job has deleted the
// backing bytes.
func Uncommit(b *batch.Batch, hash uint64) *batch.Batch {
	return b.ClearRaw(keys.BlobCommitKey(hash))
}

// LinkDocument records that (account, collection, document) owns
// hash.
func LinkDocument(b *batch.Batch, hash uint64, account uint32, collection uint8, document uint32) *batch.Batch {
	return b.PutRaw(keys.BlobLinkDocumentKey(hash, account, collection, document), nil)
}

// UnlinkDocument removes an owner link.
func UnlinkDocument(b *batch.Batch, hash uint64, account uint32, collection uint8, document uint32) *batch.Batch {
	return b.ClearRaw(keys.BlobLinkDocumentKey(hash, account, collection, document))
}

// LinkTemporary records a transient upload for account that expires
// at expiresAt; the sweep job removes it once that time has passed.
func LinkTemporary(b *batch.Batch, hash uint64, account uint32, expiresAt time.Time) *batch.Batch {
	return b.PutRaw(keys.BlobLinkTempKey(hash, account, uint64(expiresAt.Unix())), nil)
}

// UnlinkTemporary removes a temporary link, typically once the upload
// has been claimed by an owner link in the same commit point.
func UnlinkTemporary(b *batch.Batch, hash uint64, account uint32, expiresAt time.Time) *batch.Batch {
	return b.ClearRaw(keys.BlobLinkTempKey(hash, account, uint64(expiresAt.Unix())))
}

// AddQuota adjusts account's pending (not-yet-committed) blob byte
// count for hash by delta, applied before a durable link is written so
// quota is enforced ahead of the bytes actually landing.
func AddQuota(b *batch.Batch, account uint32, hash uint64, delta int64) *batch.Batch {
	return b.CounterAddRaw(keys.BlobQuotaKey(account, hash), delta)
}
