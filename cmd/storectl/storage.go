package main

import (
	"fmt"

	"github.com/cuemby/storectl/internal/storage"
	"github.com/cuemby/storectl/pkg/config"
)

// openEngine opens the storage backend cfg selects, independent of
// the replicated batch.Engine: maintenance operations read and compact
// a single node's data directly and have no need for raft consensus.
func openEngine(cfg *config.Config) (storage.Engine, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return storage.NewMemEngine(), nil
	case "bolt", "":
		return storage.OpenBoltEngine(cfg.Storage.Path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
