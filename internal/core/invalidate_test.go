package core

import (
	"context"
	"sync"
	"testing"

	"github.com/cuemby/storectl/internal/batch"
	"github.com/cuemby/storectl/internal/directory"
)

type fakeBroadcastSender struct {
	mu     sync.Mutex
	events []BroadcastEvent
}

func (f *fakeBroadcastSender) Broadcast(event BroadcastEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func idSet(ids []uint32) map[uint32]bool {
	set := make(map[uint32]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func TestInvalidatePrincipalCaches_EvictsTokenAndDAVCache(t *testing.T) {
	cfg := testConfig(t)
	c, err := New(cfg, testDeps())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Stop()

	h := c.Handle()
	ctx := context.Background()

	if _, err := h.AccessTokens.Get(ctx, 9); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if err := h.InvalidatePrincipalCaches(ctx, []uint32{9}); err != nil {
		t.Fatalf("InvalidatePrincipalCaches() error = %v", err)
	}
}

func TestInvalidatePrincipalCaches_WalksTransitiveGroupMembership(t *testing.T) {
	cfg := testConfig(t)
	c, err := New(cfg, testDeps())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Stop()

	h := c.Handle()
	ctx := context.Background()

	_, err = h.Batch.Commit(ctx, func() *batch.Batch {
		b := batch.New()
		directory.AddMember(b, 50, 9)
		directory.AddMember(b, 50, 10)
		return b.AddCommitPoint()
	})
	if err != nil {
		t.Fatalf("seed membership: %v", err)
	}

	sender := &fakeBroadcastSender{}
	h.Broadcast = sender

	if err := h.InvalidatePrincipalCaches(ctx, []uint32{50}); err != nil {
		t.Fatalf("InvalidatePrincipalCaches() error = %v", err)
	}

	if len(sender.events) != 2 {
		t.Fatalf("broadcast events = %d, want 2", len(sender.events))
	}

	want := map[uint32]bool{50: true, 9: true, 10: true}
	for _, ev := range sender.events {
		got := idSet(ev.PrincipalIDs)
		if len(got) != len(want) {
			t.Fatalf("event %v PrincipalIDs = %v, want %v", ev.Kind, ev.PrincipalIDs, want)
		}
		for id := range want {
			if !got[id] {
				t.Fatalf("event %v missing principal %d", ev.Kind, id)
			}
		}
	}

	kinds := map[BroadcastEventKind]bool{}
	for _, ev := range sender.events {
		kinds[ev.Kind] = true
	}
	if !kinds[BroadcastInvalidateAccessTokens] || !kinds[BroadcastInvalidateGroupwareCache] {
		t.Fatalf("events = %v, want both InvalidateAccessTokens and InvalidateGroupwareCache", sender.events)
	}
}

func TestInvalidatePrincipalCaches_NoBroadcastSenderIsFineLocallyOnly(t *testing.T) {
	cfg := testConfig(t)
	c, err := New(cfg, testDeps())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Stop()

	h := c.Handle()
	if h.Broadcast != nil {
		t.Fatal("Broadcast should be nil when Dependencies.BroadcastSender is not set")
	}
	if err := h.InvalidatePrincipalCaches(context.Background(), []uint32{1}); err != nil {
		t.Fatalf("InvalidatePrincipalCaches() error = %v", err)
	}
}
