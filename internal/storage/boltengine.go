package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/storectl/internal/keys"
	"github.com/cuemby/storectl/pkg/trace"
)

// bucketData is the single bucket every subspace lives in. The
// teacher's BoltStore gave each entity kind its own bucket
// (bucketNodes, bucketServices, ...); here the keys.Subspace
// discriminator already partitions the keyspace, so one bucket
// suffices and a prefix scan over [lo, hi) replaces per-bucket
// iteration.
var bucketData = []byte("data")

// BoltEngine implements Engine on top of an embedded bbolt B-tree.
// bbolt serializes writers internally, so a WriteBatch applied inside
// a single db.Update call is naturally atomic.
type BoltEngine struct {
	db *bolt.DB
}

// OpenBoltEngine opens (creating if necessary) a bbolt database file
// under dataDir.
func OpenBoltEngine(dataDir string) (*BoltEngine, error) {
	path := filepath.Join(dataDir, "storectl.db")

	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, trace.WrapErr(trace.Backend, "open bolt database", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketData)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, trace.WrapErr(trace.Backend, "create data bucket", err)
	}

	return &BoltEngine{db: db}, nil
}

func (e *BoltEngine) Get(_ context.Context, key []byte) ([]byte, error) {
	var value []byte
	err := e.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketData).Get(key)
		if v != nil {
			value = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, trace.WrapErr(trace.Backend, "get", err)
	}
	return value, nil
}

func (e *BoltEngine) Iterate(_ context.Context, lo, hi []byte, reverse, withValues bool) (Iterator, error) {
	var rows []memRow

	err := e.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketData).Cursor()
		for k, v := c.Seek(lo); k != nil && (hi == nil || bytes.Compare(k, hi) < 0); k, v = c.Next() {
			row := memRow{key: append([]byte(nil), k...)}
			if withValues {
				row.value = append([]byte(nil), v...)
			}
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		return nil, trace.WrapErr(trace.Backend, "iterate", err)
	}

	if reverse {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}

	return &memIterator{rows: rows, index: -1}, nil
}

func (e *BoltEngine) Write(_ context.Context, batch *WriteBatch) (*WriteResult, error) {
	result := &WriteResult{CounterValues: make(map[string]int64)}

	err := e.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketData)

		for _, op := range batch.Ops {
			if op.Kind != OpAssertHash {
				continue
			}
			current := b.Get(op.Key)
			if Hash32(current) != op.WantHash {
				return trace.Wrap(trace.AssertFailed, "precondition failed for key %x", op.Key)
			}
		}

		for _, op := range batch.Ops {
			switch op.Kind {
			case OpPut:
				if err := b.Put(op.Key, op.Value); err != nil {
					return err
				}
			case OpDelete:
				if err := b.Delete(op.Key); err != nil {
					return err
				}
			case OpAssertHash:
				// validated above
			case OpCounterAdd:
				next := decodeCounter(b.Get(op.Key)) + op.Delta
				if err := b.Put(op.Key, encodeCounter(next)); err != nil {
					return err
				}
				result.CounterValues[string(op.Key)] = next
			}
		}
		return nil
	})

	if err != nil {
		if trace.Is(err, trace.AssertFailed) {
			return nil, err
		}
		return nil, trace.WrapErr(trace.Backend, "write batch", err)
	}

	return result, nil
}

func (e *BoltEngine) CounterAdd(_ context.Context, key []byte, delta int64) (int64, error) {
	var next int64
	err := e.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketData)
		next = decodeCounter(b.Get(key)) + delta
		return b.Put(key, encodeCounter(next))
	})
	if err != nil {
		return 0, trace.WrapErr(trace.Backend, "counter add", err)
	}
	return next, nil
}

func (e *BoltEngine) DeleteSubspace(_ context.Context, sub keys.Subspace) error {
	lo, hi := keys.SubspaceRange(sub)

	err := e.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketData)
		c := b.Cursor()

		var toDelete [][]byte
		for k, _ := c.Seek(lo); k != nil && bytes.Compare(k, hi) < 0; k, _ = c.Next() {
			toDelete = append(toDelete, append([]byte(nil), k...))
		}
		for _, k := range toDelete {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return trace.WrapErr(trace.Backend, "delete subspace", err)
	}
	return nil
}

func (e *BoltEngine) Compact(context.Context, []byte, []byte) error {
	// bbolt reclaims free pages on its own; there is no external
	// compaction hook to trigger here.
	return nil
}

func (e *BoltEngine) Close() error {
	if err := e.db.Close(); err != nil {
		return fmt.Errorf("close bolt database: %w", err)
	}
	return nil
}
