package taskqueue

import (
	"context"
	"math"

	"github.com/cuemby/storectl/internal/keys"
	"github.com/cuemby/storectl/internal/storage"
)

// Pending reports how many rows of kind are currently queued,
// regardless of due time or attempt count. The blob sweeper's barrier
// uses this to hold off sweeping while an index-update backlog
// remains: a blob's owner link can already be gone while the entity
// that used to reference it is still waiting to be unindexed.
func Pending(ctx context.Context, store storage.Engine, kind Kind) (int, error) {
	lo, hi := keys.TaskQueueDueRange(uint8(kind), 0, math.MaxUint64)
	it, err := store.Iterate(ctx, lo, hi, false, false)
	if err != nil {
		return 0, err
	}
	defer it.Close()

	count := 0
	for it.Next() {
		count++
	}
	return count, it.Err()
}
