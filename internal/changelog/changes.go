package changelog

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/cuemby/storectl/internal/keys"
	"github.com/cuemby/storectl/internal/storage"
	"github.com/cuemby/storectl/pkg/trace"
)

// Result is the response shape spec.md §4.6/§6 names for a sync
// client's changes(account, collection, Since(id)) call.
type Result struct {
	Changes           []Entry
	ItemChangeID      uint64
	ContainerChangeID uint64
	ToChangeID        uint64
	IsTruncated       bool
}

// Changes returns every entry recorded for (account, collection) since
// since, decoded and flattened in change-id order, plus the highest
// item/container/overall change ids observed. IsTruncated is true when
// since predates this log's retention floor: the caller must rebuild
// its cache from scratch rather than trust an incremental replay.
func Changes(ctx context.Context, store storage.Engine, account uint32, collection uint8, since uint64) (*Result, error) {
	result := &Result{ToChangeID: since}

	retained, err := retentionFloor(ctx, store, account, collection)
	if err != nil {
		return nil, err
	}
	if since < retained {
		result.IsTruncated = true
	}

	lo, hi := keys.ChangeLogSinceRange(account, collection, since)
	it, err := store.Iterate(ctx, lo, hi, false, true)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	for it.Next() {
		changeID, err := keys.DecodeChangeLogChangeID(it.Key())
		if err != nil {
			return nil, err
		}

		entries, err := Decode(it.Value())
		if err != nil {
			return nil, err
		}
		result.Changes = append(result.Changes, entries...)

		if changeID > result.ToChangeID {
			result.ToChangeID = changeID
		}
		for _, e := range entries {
			if e.Kind.IsContainer() {
				if changeID > result.ContainerChangeID {
					result.ContainerChangeID = changeID
				}
			} else if changeID > result.ItemChangeID {
				result.ItemChangeID = changeID
			}
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func retentionKey(account uint32, collection uint8) []byte {
	return keys.InMemoryKey(fmt.Sprintf("changelog-retained:%d:%d", account, collection), 0)
}

func retentionFloor(ctx context.Context, store storage.Engine, account uint32, collection uint8) (uint64, error) {
	v, err := store.Get(ctx, retentionKey(account, collection))
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, nil
	}
	if len(v) != 8 {
		return 0, trace.Wrap(trace.DataCorruption, "retention marker is %d bytes, want 8", len(v))
	}
	return binary.BigEndian.Uint64(v), nil
}
