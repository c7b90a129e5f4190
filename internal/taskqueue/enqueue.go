package taskqueue

import (
	"time"

	"github.com/cuemby/storectl/internal/batch"
	"github.com/cuemby/storectl/internal/keys"
)

// Enqueue appends a TaskQueue row for a fresh (attempt 0) task, to be
// written in the same commit as the entity change that produced it.
func Enqueue(b *batch.Batch, kind Kind, account, document uint32, payload []byte, runAt time.Time) *batch.Batch {
	key := keys.TaskQueueKey(uint8(kind), encodeDue(runAt, 0), account, document)
	return b.PutRaw(key, payload)
}

// Reschedule moves a failed task to a later due time with attempt
// incremented, via a raw clear-then-put: the key changes because due
// is part of it, so this is not a plain overwrite.
func Reschedule(b *batch.Batch, kind Kind, account, document uint32, payload []byte, oldDue uint64, attempt uint8, base, maxDelay time.Duration) *batch.Batch {
	oldKey := keys.TaskQueueKey(uint8(kind), oldDue, account, document)
	b.ClearRaw(oldKey)

	runAt := time.Now().Add(backoff(attempt, base, maxDelay))
	newKey := keys.TaskQueueKey(uint8(kind), encodeDue(runAt, attempt), account, document)
	return b.PutRaw(newKey, payload)
}

// Complete clears a task's row once its handler has executed it.
func Complete(b *batch.Batch, kind Kind, account, document uint32, due uint64) *batch.Batch {
	return b.ClearRaw(keys.TaskQueueKey(uint8(kind), due, account, document))
}
