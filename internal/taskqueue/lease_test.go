package taskqueue

import (
	"context"
	"testing"
	"time"

	"github.com/cuemby/storectl/internal/storage"
)

func TestTryLock_SecondCallerLosesRace(t *testing.T) {
	store := storage.NewMemEngine()
	ctx := context.Background()

	ok, err := TryLock(ctx, store, "lock-a", time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("TryLock() error = %v", err)
	}
	if !ok {
		t.Fatal("first TryLock() = false, want true")
	}

	ok, err = TryLock(ctx, store, "lock-a", time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("TryLock() error = %v", err)
	}
	if ok {
		t.Fatal("second TryLock() on a live lease = true, want false")
	}
}

func TestTryLock_SucceedsAfterExpiry(t *testing.T) {
	store := storage.NewMemEngine()
	ctx := context.Background()

	if ok, err := TryLock(ctx, store, "lock-b", time.Now().Add(-time.Second)); err != nil || !ok {
		t.Fatalf("first TryLock() = (%v, %v), want (true, nil)", ok, err)
	}

	ok, err := TryLock(ctx, store, "lock-b", time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("TryLock() error = %v", err)
	}
	if !ok {
		t.Fatal("TryLock() after expiry = false, want true")
	}
}

func TestLocalLeases_ReapDropsStaleRevisions(t *testing.T) {
	leases := newLocalLeases()
	leases.observe("a", 1)
	leases.observe("b", 2)

	reaped := leases.reap(2)
	if reaped != 1 {
		t.Fatalf("reap() reaped = %d, want 1", reaped)
	}

	leases.mu.Lock()
	_, stillA := leases.entries["a"]
	_, stillB := leases.entries["b"]
	leases.mu.Unlock()

	if stillA {
		t.Error("entry \"a\" survived reap at a later revision, want evicted")
	}
	if !stillB {
		t.Error("entry \"b\" evicted by its own revision's reap, want kept")
	}
}
