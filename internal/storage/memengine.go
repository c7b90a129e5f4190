package storage

import (
	"bytes"
	"context"
	"encoding/binary"
	"sort"
	"sync"

	"github.com/cuemby/storectl/internal/keys"
	"github.com/cuemby/storectl/pkg/trace"
)

// MemEngine is an in-process Engine backed by a sync.RWMutex-guarded
// sorted map. It is the default backend for tests and single-node
// development: no file handle, no background compaction, values lost
// on process exit.
type MemEngine struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemEngine returns an empty in-memory engine.
func NewMemEngine() *MemEngine {
	return &MemEngine{data: make(map[string][]byte)}
}

func (e *MemEngine) Get(_ context.Context, key []byte) ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	v, ok := e.data[string(key)]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (e *MemEngine) Iterate(_ context.Context, lo, hi []byte, reverse, withValues bool) (Iterator, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var keysInRange []string
	for k := range e.data {
		kb := []byte(k)
		if bytes.Compare(kb, lo) < 0 {
			continue
		}
		if hi != nil && bytes.Compare(kb, hi) >= 0 {
			continue
		}
		keysInRange = append(keysInRange, k)
	}

	sort.Strings(keysInRange)
	if reverse {
		for i, j := 0, len(keysInRange)-1; i < j; i, j = i+1, j-1 {
			keysInRange[i], keysInRange[j] = keysInRange[j], keysInRange[i]
		}
	}

	rows := make([]memRow, len(keysInRange))
	for i, k := range keysInRange {
		rows[i].key = []byte(k)
		if withValues {
			rows[i].value = append([]byte(nil), e.data[k]...)
		}
	}

	return &memIterator{rows: rows, index: -1}, nil
}

func (e *MemEngine) Write(_ context.Context, batch *WriteBatch) (*WriteResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Validate every assertion before mutating anything, so the batch
	// is all-or-nothing.
	for _, op := range batch.Ops {
		if op.Kind != OpAssertHash {
			continue
		}
		current := e.data[string(op.Key)]
		if Hash32(current) != op.WantHash {
			return nil, trace.Wrap(trace.AssertFailed, "precondition failed for key %x", op.Key)
		}
	}

	result := &WriteResult{CounterValues: make(map[string]int64)}
	for _, op := range batch.Ops {
		switch op.Kind {
		case OpPut:
			e.data[string(op.Key)] = append([]byte(nil), op.Value...)
		case OpDelete:
			delete(e.data, string(op.Key))
		case OpAssertHash:
			// validated above
		case OpCounterAdd:
			next := decodeCounter(e.data[string(op.Key)]) + op.Delta
			e.data[string(op.Key)] = encodeCounter(next)
			result.CounterValues[string(op.Key)] = next
		}
	}

	return result, nil
}

func (e *MemEngine) CounterAdd(_ context.Context, key []byte, delta int64) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := decodeCounter(e.data[string(key)]) + delta
	e.data[string(key)] = encodeCounter(next)
	return next, nil
}

func (e *MemEngine) DeleteSubspace(_ context.Context, sub keys.Subspace) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	lo, hi := keys.SubspaceRange(sub)
	for k := range e.data {
		kb := []byte(k)
		if bytes.Compare(kb, lo) >= 0 && bytes.Compare(kb, hi) < 0 {
			delete(e.data, k)
		}
	}
	return nil
}

func (e *MemEngine) Compact(context.Context, []byte, []byte) error {
	return nil
}

func (e *MemEngine) Close() error {
	return nil
}

func decodeCounter(v []byte) int64 {
	if len(v) != 8 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(v))
}

func encodeCounter(v int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(v))
	return buf
}

type memRow struct {
	key   []byte
	value []byte
}

type memIterator struct {
	rows  []memRow
	index int
}

func (it *memIterator) Next() bool {
	it.index++
	return it.index < len(it.rows)
}

func (it *memIterator) Key() []byte {
	return it.rows[it.index].key
}

func (it *memIterator) Value() []byte {
	return it.rows[it.index].value
}

func (it *memIterator) Err() error {
	return nil
}

func (it *memIterator) Close() error {
	return nil
}
