package changelog

import (
	"github.com/cuemby/storectl/internal/batch"
)

// Append records entries against the active account's log for
// syncCollection. The change id is assigned by internal/batch once the
// commit point containing this call actually applies.
func Append(b *batch.Batch, syncCollection uint8, entries []Entry) *batch.Batch {
	return b.Log(syncCollection, Encode(entries))
}

// AppendVanished is Append for a mutation that also destroys a
// path-tracked resource (a CalDAV/CardDAV delete): path is recorded
// under a Vanished row at the same assigned change id.
func AppendVanished(b *batch.Batch, syncCollection uint8, entries []Entry, path string) *batch.Batch {
	return b.LogVanished(syncCollection, Encode(entries), path)
}
