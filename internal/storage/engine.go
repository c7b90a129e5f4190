package storage

import (
	"context"

	"github.com/cespare/xxhash/v2"

	"github.com/cuemby/storectl/internal/keys"
)

// Engine is the contract every storage backend implements. Handlers
// never reach a backend directly; internal/batch and the archive,
// blob, changelog, taskqueue etc. packages are the only callers.
type Engine interface {
	// Get returns the value stored at key, or (nil, nil) if absent.
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Iterate returns an Iterator over [lo, hi). A nil hi means
	// unbounded above. withValues false lets a backend skip loading
	// values when the caller only needs keys.
	Iterate(ctx context.Context, lo, hi []byte, reverse, withValues bool) (Iterator, error)

	// Write applies a batch atomically.
	Write(ctx context.Context, batch *WriteBatch) (*WriteResult, error)

	// CounterAdd atomically adds delta to the counter at key and
	// returns the post-add value.
	CounterAdd(ctx context.Context, key []byte, delta int64) (int64, error)

	// DeleteSubspace removes every row under the given subspace.
	DeleteSubspace(ctx context.Context, sub keys.Subspace) error

	// Compact is a best-effort hint; backends that have nothing to
	// compact treat it as a no-op.
	Compact(ctx context.Context, lo, hi []byte) error

	// Close releases backend resources.
	Close() error
}

// Iterator walks a key range in ascending or descending order.
type Iterator interface {
	// Next advances the iterator and reports whether a row is
	// available.
	Next() bool
	Key() []byte
	Value() []byte
	Err() error
	Close() error
}

// OpKind identifies one operation within a WriteBatch.
type OpKind uint8

const (
	OpPut OpKind = iota
	OpDelete
	OpAssertHash
	OpCounterAdd
)

// Op is one raw storage operation. internal/batch materializes the
// spec's typed Value/AssertValue/Index/Log operations down to a
// sequence of these before calling Engine.Write.
type Op struct {
	Kind OpKind
	Key  []byte

	// Put
	Value []byte

	// AssertHash: fails the whole batch with trace.AssertFailed
	// unless Hash32(current value at Key) == WantHash.
	WantHash uint32

	// CounterAdd
	Delta int64
}

// WriteBatch accumulates operations for one atomic Engine.Write call.
type WriteBatch struct {
	Ops []Op
}

// NewWriteBatch returns an empty batch.
func NewWriteBatch() *WriteBatch {
	return &WriteBatch{}
}

// Put appends a Put operation.
func (b *WriteBatch) Put(key, value []byte) *WriteBatch {
	b.Ops = append(b.Ops, Op{Kind: OpPut, Key: key, Value: value})
	return b
}

// Delete appends a Delete operation.
func (b *WriteBatch) Delete(key []byte) *WriteBatch {
	b.Ops = append(b.Ops, Op{Kind: OpDelete, Key: key})
	return b
}

// AssertHash appends a precondition: the batch fails atomically unless
// the current value at key hashes to wantHash.
func (b *WriteBatch) AssertHash(key []byte, wantHash uint32) *WriteBatch {
	b.Ops = append(b.Ops, Op{Kind: OpAssertHash, Key: key, WantHash: wantHash})
	return b
}

// CounterAdd appends an atomic counter adjustment, recorded under key
// in the WriteResult on success.
func (b *WriteBatch) CounterAdd(key []byte, delta int64) *WriteBatch {
	b.Ops = append(b.Ops, Op{Kind: OpCounterAdd, Key: key, Delta: delta})
	return b
}

// WriteResult carries the post-add values of every CounterAdd op in
// the batch that just committed, keyed by the raw key bytes.
type WriteResult struct {
	CounterValues map[string]int64
}

// Hash32 is the stable 32-bit content hash used for AssertHash
// preconditions and, by the archive layer, for ETags. It is the low
// 32 bits of the xxhash64 digest: fast, non-cryptographic, and stable
// across process restarts.
func Hash32(data []byte) uint32 {
	return uint32(xxhash.Sum64(data))
}
