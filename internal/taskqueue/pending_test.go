package taskqueue

import (
	"context"
	"testing"
	"time"

	"github.com/cuemby/storectl/internal/keys"
	"github.com/cuemby/storectl/internal/storage"
)

func seedTask(t *testing.T, store storage.Engine, kind Kind, account, document uint32) {
	t.Helper()
	key := keys.TaskQueueKey(uint8(kind), encodeDue(time.Now(), 0), account, document)
	wb := storage.NewWriteBatch().Put(key, []byte("payload"))
	if _, err := store.Write(context.Background(), wb); err != nil {
		t.Fatalf("seed task: %v", err)
	}
}

func TestPending_CountsOnlyMatchingKind(t *testing.T) {
	store := storage.NewMemEngine()
	defer store.Close()

	seedTask(t, store, KindIndexUpdate, 1, 10)
	seedTask(t, store, KindIndexUpdate, 1, 11)
	seedTask(t, store, KindAlarm, 1, 12)

	ctx := context.Background()
	count, err := Pending(ctx, store, KindIndexUpdate)
	if err != nil {
		t.Fatalf("Pending() error = %v", err)
	}
	if count != 2 {
		t.Fatalf("Pending(KindIndexUpdate) = %d, want 2", count)
	}

	count, err = Pending(ctx, store, KindAlarm)
	if err != nil {
		t.Fatalf("Pending() error = %v", err)
	}
	if count != 1 {
		t.Fatalf("Pending(KindAlarm) = %d, want 1", count)
	}

	count, err = Pending(ctx, store, KindMerge)
	if err != nil {
		t.Fatalf("Pending() error = %v", err)
	}
	if count != 0 {
		t.Fatalf("Pending(KindMerge) = %d, want 0", count)
	}
}
