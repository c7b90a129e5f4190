package searchindex

import (
	"context"

	"github.com/cuemby/storectl/internal/batch"
	"github.com/cuemby/storectl/internal/keys"
	"github.com/cuemby/storectl/internal/storage"
)

// WriteRecord appends doc's fields to the active commit point's batch
// as SearchIndex rows, per spec.md §4.7's write path: the typed search
// record is written synchronously in the same transaction as the
// entity it describes. Folding the record into the active Backend is
// a separate, asynchronous step an index worker performs once this
// commit lands.
func WriteRecord(b *batch.Batch, doc Document) *batch.Batch {
	for field, value := range doc.Fields {
		b.PutRaw(keys.SearchIndexKey(doc.Index, doc.ID, field, encodeValueKey(value)), nil)
	}
	return b
}

// Unwrite removes doc's previously written rows, used when an entity
// is deleted or reindexed with a different field set.
func Unwrite(b *batch.Batch, doc Document) *batch.Batch {
	for field, value := range doc.Fields {
		b.ClearRaw(keys.SearchIndexKey(doc.Index, doc.ID, field, encodeValueKey(value)))
	}
	return b
}

// LoadAll scans the entire SearchIndex subspace and folds it into
// backend, rebuilding MemoryBackend's in-memory state after a process
// restart. A production deployment instead lets the index worker
// replay only what it missed; a full scan is the simple, always-
// correct option for the embedded backend's expected corpus size.
func LoadAll(ctx context.Context, store storage.Engine, backend Backend) error {
	lo, hi := keys.SubspaceRange(keys.SearchIndex)
	it, err := store.Iterate(ctx, lo, hi, false, false)
	if err != nil {
		return err
	}
	defer it.Close()

	byIndexAndID := make(map[uint8]map[uint32]Document)
	for it.Next() {
		index, id, field, err := keys.DecodeSearchIndexKey(it.Key())
		if err != nil {
			return err
		}
		byID, ok := byIndexAndID[index]
		if !ok {
			byID = make(map[uint32]Document)
			byIndexAndID[index] = byID
		}
		d, ok := byID[id]
		if !ok {
			d = Document{Index: index, ID: id, Fields: make(map[uint8]Value)}
		}
		d.Fields[field] = Value{Kind: ValueKeyed} // presence only; the posting's typed value is not recoverable from the key alone
		byID[id] = d
	}
	if err := it.Err(); err != nil {
		return err
	}

	var documents []Document
	for _, byID := range byIndexAndID {
		for _, d := range byID {
			documents = append(documents, d)
		}
	}
	return backend.Index(ctx, documents)
}

// encodeValueKey renders value as the opaque trailing bytes a
// SearchIndexKey sorts on. Integers/unsigned use a fixed-width
// big-endian encoding so numeric order matches byte order; bools are
// one byte, text uses its own bytes, and keyed values encode to no
// bytes at all.
func encodeValueKey(v Value) []byte {
	switch v.Kind {
	case ValueInteger:
		return encodeOrderedInt64(v.Integer)
	case ValueUnsigned:
		return encodeUint64(v.Unsigned)
	case ValueBool:
		if v.Bool {
			return []byte{1}
		}
		return []byte{0}
	case ValueText:
		return []byte(v.Text)
	default:
		return nil
	}
}

func encodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}

// encodeOrderedInt64 flips the sign bit so two's-complement ordering
// matches byte-lexicographic ordering.
func encodeOrderedInt64(v int64) []byte {
	return encodeUint64(uint64(v) ^ (1 << 63))
}
