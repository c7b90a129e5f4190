package changelog

import (
	"context"
	"encoding/binary"

	"github.com/cuemby/storectl/internal/batch"
	"github.com/cuemby/storectl/internal/keys"
	"github.com/cuemby/storectl/internal/storage"
)

// TrimBefore drops every change-log row for (account, collection) with
// a change id below keepChangeID and raises the retention floor to
// match, so a subsequent Changes call with since below the new floor
// reports IsTruncated instead of silently returning an incomplete
// result. The Vanished log is a separate retention policy and is left
// untouched here.
func TrimBefore(ctx context.Context, engine *batch.Engine, store storage.Engine, account uint32, collection uint8, keepChangeID uint64) error {
	lo, hi := keys.ChangeLogBeforeRange(account, collection, keepChangeID)
	it, err := store.Iterate(ctx, lo, hi, false, false)
	if err != nil {
		return err
	}
	defer it.Close()

	var doomed [][]byte
	for it.Next() {
		doomed = append(doomed, append([]byte(nil), it.Key()...))
	}
	if err := it.Err(); err != nil {
		return err
	}
	if len(doomed) == 0 {
		return nil
	}

	var floor [8]byte
	binary.BigEndian.PutUint64(floor[:], keepChangeID)

	_, err = engine.Commit(ctx, func() *batch.Batch {
		b := batch.New()
		for _, key := range doomed {
			b.ClearRaw(key)
		}
		b.PutRaw(retentionKey(account, collection), floor[:])
		return b.AddCommitPoint()
	})
	return err
}
