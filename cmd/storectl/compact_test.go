package main

import (
	"context"
	"testing"

	"github.com/cuemby/storectl/internal/keys"
	"github.com/cuemby/storectl/internal/storage"
)

func TestCompact_EveryConfiguredSubspaceSucceeds(t *testing.T) {
	engine := storage.NewMemEngine()
	defer engine.Close()

	ctx := context.Background()
	for _, sub := range subspaces {
		lo, hi := keys.SubspaceRange(sub.id)
		if err := engine.Compact(ctx, lo, hi); err != nil {
			t.Fatalf("Compact(%s) error = %v", sub.name, err)
		}
	}
}
