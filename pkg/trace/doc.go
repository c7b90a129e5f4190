/*
Package trace defines the error taxonomy shared by every storage-core
package.

The core never invents ad-hoc error strings for conditions a caller might
need to branch on. Instead each failure mode is one of a small set of
sentinel errors (Decode, DataCorruption, NotFound, AssertFailed,
StoreContention, Quota, Unauthorized, BlobNotFound, Backend) wrapped with
context via fmt.Errorf("...: %w", err), the same way the teacher's
pkg/storage and pkg/manager wrap bbolt/raft errors with the operation and
key that failed.

Callers use errors.Is against the sentinel to recover the taxonomy class:

	if errors.Is(err, trace.AssertFailed) {
	    // resubmit with a fresh pre-image
	}
*/
package trace
