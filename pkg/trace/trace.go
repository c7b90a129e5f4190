package trace

import (
	"errors"
	"fmt"
)

// Sentinel errors identifying the taxonomy of section 7. Wrap one of these
// with fmt.Errorf("%w: ...", Sentinel) so errors.Is still matches while
// the message carries the offending key/entity.
var (
	// Decode means a key or value failed to parse against its schema.
	Decode = errors.New("decode")

	// DataCorruption means an archive hash mismatch, an out-of-range key
	// component, or an invalid discriminator byte was observed.
	DataCorruption = errors.New("data corruption")

	// NotFound means the requested key is absent. Core-boundary callers
	// usually recover this to (nil, nil) rather than propagating it.
	NotFound = errors.New("not found")

	// AssertFailed means an optimistic precondition was violated.
	AssertFailed = errors.New("assertion failed")

	// StoreContention means a batch exhausted its retry budget.
	StoreContention = errors.New("store contention")

	// Quota means a per-principal or per-tenant quota was exceeded.
	Quota = errors.New("quota exceeded")

	// Unauthorized means the access token lacks the required permission
	// or ACL grant.
	Unauthorized = errors.New("unauthorized")

	// BlobNotFound means the referenced content hash has no backing bytes.
	BlobNotFound = errors.New("blob not found")

	// Backend means the storage or blob backend failed for a
	// transport/implementation-specific reason; the cause is wrapped.
	Backend = errors.New("backend error")
)

// Wrap annotates a sentinel with context, keeping errors.Is intact.
func Wrap(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), sentinel)
}

// WrapErr annotates a sentinel with both a message and an underlying
// cause, e.g. trace.WrapErr(trace.Backend, "bolt get", err).
func WrapErr(sentinel error, msg string, cause error) error {
	return fmt.Errorf("%s: %w: %v", msg, sentinel, cause)
}

// Is is a small re-export so callers need only import pkg/trace.
func Is(err, target error) bool { return errors.Is(err, target) }
