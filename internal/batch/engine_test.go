package batch

import (
	"context"
	"testing"
	"time"

	"github.com/hashicorp/raft"

	"github.com/cuemby/storectl/internal/keys"
	"github.com/cuemby/storectl/internal/storage"
	"github.com/cuemby/storectl/pkg/config"
)

func newTestEngine(t *testing.T, bindAddr string) *Engine {
	t.Helper()

	e, err := NewEngine(EngineConfig{
		NodeID:    "node-1",
		BindAddr:  bindAddr,
		DataDir:   t.TempDir(),
		Store:     storage.NewMemEngine(),
		Batch:     config.BatchConfig{MaxAttempts: 5, MaxDuration: 2 * time.Second},
		Bootstrap: true,
	})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	t.Cleanup(func() { e.Raft().Shutdown().Error() })

	waitForLeader(t, e)
	return e
}

func waitForLeader(t *testing.T, e *Engine) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if e.Raft().State() == raft.Leader {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("raft node never became leader")
}

func TestEngine_CommitAppliesASimpleSet(t *testing.T) {
	e := newTestEngine(t, "127.0.0.1:19231")
	ctx := context.Background()

	_, err := e.Commit(ctx, func() *Batch {
		return New().AccountID(1).Collection(1).DocumentID(1).Set(1, []byte("hello"))
	})
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	v, err := e.store.Get(ctx, keys.PropertyKey(1, 1, 1, 1))
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(v) != "hello" {
		t.Errorf("Get() = %q, want %q", v, "hello")
	}
}

func TestEngine_CommitRetriesOnAssertFailure(t *testing.T) {
	e := newTestEngine(t, "127.0.0.1:19232")
	ctx := context.Background()

	_, err := e.Commit(ctx, func() *Batch {
		return New().AccountID(1).Collection(1).DocumentID(1).Set(1, []byte("v1"))
	})
	if err != nil {
		t.Fatalf("seed Commit() error = %v", err)
	}

	attempts := 0
	_, err = e.Commit(ctx, func() *Batch {
		attempts++
		wantHash := storage.Hash32([]byte("not the current value"))
		if attempts > 1 {
			wantHash = storage.Hash32([]byte("v1"))
		}
		return New().AccountID(1).Collection(1).DocumentID(1).
			AssertValue(1, wantHash).
			Set(1, []byte("v2"))
	})
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if attempts < 2 {
		t.Errorf("attempts = %d, want at least 2 (first assert should have failed)", attempts)
	}

	v, _ := e.store.Get(ctx, keys.PropertyKey(1, 1, 1, 1))
	if string(v) != "v2" {
		t.Errorf("Get() = %q, want %q", v, "v2")
	}
}

func TestEngine_CommitAssignsChangeIds(t *testing.T) {
	e := newTestEngine(t, "127.0.0.1:19233")
	ctx := context.Background()

	assigned, err := e.Commit(ctx, func() *Batch {
		return New().AccountID(1).Collection(1).DocumentID(1).
			Set(1, []byte("hello")).
			Log(2, []byte("created"))
	})
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	id, ok := assigned.ChangeID(1, 2)
	if !ok || id != 1 {
		t.Fatalf("ChangeID() = %d, %v, want 1, true", id, ok)
	}

	second, err := e.Commit(ctx, func() *Batch {
		return New().AccountID(1).Log(2, []byte("updated"))
	})
	if err != nil {
		t.Fatalf("second Commit() error = %v", err)
	}
	if id, ok := second.ChangeID(1, 2); !ok || id != 2 {
		t.Fatalf("second ChangeID() = %d, %v, want 2, true", id, ok)
	}
}

func TestEngine_CommitLogVanishedWritesBothRows(t *testing.T) {
	e := newTestEngine(t, "127.0.0.1:19234")
	ctx := context.Background()

	assigned, err := e.Commit(ctx, func() *Batch {
		return New().AccountID(1).LogVanished(5, []byte("deleted"), "/cal/a/e2")
	})
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	id, ok := assigned.ChangeID(1, 5)
	if !ok {
		t.Fatalf("ChangeID() not recorded")
	}

	v, err := e.store.Get(ctx, keys.ChangeLogKey(1, 5, id))
	if err != nil || string(v) != "deleted" {
		t.Errorf("change log row = %q, %v, want %q, nil", v, err, "deleted")
	}

	v, err = e.store.Get(ctx, keys.VanishedKey(1, 5, id))
	if err != nil || string(v) != "/cal/a/e2" {
		t.Errorf("vanished row = %q, %v, want %q, nil", v, err, "/cal/a/e2")
	}
}
