package taskqueue

import (
	"context"
	"encoding/binary"
	"sync"
	"time"

	"github.com/cuemby/storectl/internal/keys"
	"github.com/cuemby/storectl/internal/storage"
	"github.com/cuemby/storectl/pkg/trace"
)

// TryLock attempts the cooperative shared lock spec.md §4.10 calls
// try_lock_task: it CASes a short-lived expiry row in the InMemory
// subspace, succeeding only if the row is absent or already expired.
// A failed CAS means another node holds the lease; that is not an
// error, just a lost race.
func TryLock(ctx context.Context, store storage.Engine, lockKey string, expiresAt time.Time) (bool, error) {
	key := keys.InMemoryKey(lockKey, 0)

	current, err := store.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if current != nil {
		if existing, ok := decodeExpiry(current); ok && time.Now().Before(existing) {
			return false, nil
		}
	}

	wantHash := storage.Hash32(current)
	encoded := encodeExpiry(expiresAt)
	wb := storage.NewWriteBatch().AssertHash(key, wantHash).Put(key, encoded)
	if _, err := store.Write(ctx, wb); err != nil {
		if trace.Is(err, trace.AssertFailed) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func encodeExpiry(t time.Time) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(t.Unix()))
	return buf
}

func decodeExpiry(data []byte) (time.Time, bool) {
	if len(data) != 8 {
		return time.Time{}, false
	}
	return time.Unix(int64(binary.BigEndian.Uint64(data)), 0), true
}

// localLeases is this node's in-process view of the locks it
// currently believes it holds, keyed the same as TryLock's lockKey.
// Each dispatch cycle bumps revision and records every task it newly
// locks. TryLock refuses any live lease, this node's own included, so
// a task is re-observed only once its previous lease has expired;
// entries whose revision falls behind the current cycle are reaped.
type localLeases struct {
	mu      sync.Mutex
	entries map[string]uint64 // lockKey -> last-seen revision
}

func newLocalLeases() *localLeases {
	return &localLeases{entries: make(map[string]uint64)}
}

func (l *localLeases) observe(lockKey string, revision uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[lockKey] = revision
}

func (l *localLeases) reap(currentRevision uint64) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	reaped := 0
	for key, rev := range l.entries {
		if rev != currentRevision {
			delete(l.entries, key)
			reaped++
		}
	}
	return reaped
}
