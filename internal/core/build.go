package core

import (
	"context"
	"fmt"

	"github.com/cuemby/storectl/internal/accesstoken"
	"github.com/cuemby/storectl/internal/batch"
	"github.com/cuemby/storectl/internal/blob"
	"github.com/cuemby/storectl/internal/davcache"
	"github.com/cuemby/storectl/internal/searchindex"
	"github.com/cuemby/storectl/internal/statemgr"
	"github.com/cuemby/storectl/internal/storage"
	"github.com/cuemby/storectl/internal/taskqueue"
	"github.com/cuemby/storectl/pkg/config"
)

// Dependencies are the external collaborators this storage core never
// implements itself (per spec.md's overview: "every surface that sits
// above [the core]... is specified only at its interface boundary").
// A deployment supplies these once per configuration generation.
type Dependencies struct {
	// TokenBuilder resolves one principal's AccessToken, typically
	// wrapping accesstoken.Build with directory/role lookups this core
	// does not own.
	TokenBuilder accesstoken.Builder

	// DAVSource loads groupware resource snapshots for internal/davcache.
	DAVSource davcache.Source

	// SearchSource feeds internal/searchindex's reconciliation worker.
	SearchSource searchindex.Source

	// TaskHandlers services internal/taskqueue's dispatch loop, one per
	// registered taskqueue.Kind.
	TaskHandlers map[taskqueue.Kind]taskqueue.Handler

	// PushSender delivers state changes to push-registered
	// internal/statemgr subscribers. May be nil if the deployment has
	// none.
	PushSender statemgr.PushSender

	// BroadcastSender ships cache-invalidation and state-change events
	// to the rest of the cluster. May be nil if the deployment runs a
	// single node or has no gossip transport wired.
	BroadcastSender BroadcastSender
}

// Build assembles a Handle from cfg and deps: opens the storage
// backend, wraps it in a replicated batch.Engine, and constructs every
// cache and background manager spec.md's modules name. It does not
// Start the handle; a caller does that once the handle is ready to
// take traffic.
func Build(cfg *config.Config, deps Dependencies) (*Handle, error) {
	store, err := openStorage(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	engine, err := batch.NewEngine(batch.EngineConfig{
		NodeID:    cfg.NodeID,
		BindAddr:  cfg.BindAddr,
		DataDir:   cfg.DataDir,
		Store:     store,
		Batch:     cfg.Batch,
		Bootstrap: true,
	})
	if err != nil {
		return nil, fmt.Errorf("start batch engine: %w", err)
	}

	blobStore, err := blob.NewStore(cfg.Blob.Path)
	if err != nil {
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	blobBarrier := func(ctx context.Context) (bool, error) {
		n, err := taskqueue.Pending(ctx, store, taskqueue.KindIndexUpdate)
		if err != nil {
			return false, err
		}
		return n == 0, nil
	}
	blobSweeper := blob.NewSweeper(blobStore, engine, store, cfg.Blob.SweepInterval, blobBarrier)

	searchBackend := searchindex.NewMemoryBackend()
	searchWorker := searchindex.NewWorker(deps.SearchSource, searchBackend, searchIndexBatchSize, cfg.SearchIndex.ReconcileInterval)

	tokenCache := accesstoken.NewCache(deps.TokenBuilder, cfg.AccessToken.TTL)
	davCache := davcache.NewCache(deps.DAVSource)
	taskManager := taskqueue.NewManager(store, engine, cfg.TaskQueue, deps.TaskHandlers)
	stateManager := statemgr.NewManager(cfg.StateManager, deps.PushSender)

	return &Handle{
		Store:        store,
		Batch:        engine,
		Blob:         blobStore,
		BlobSweeper:  blobSweeper,
		SearchIndex:  searchBackend,
		SearchWorker: searchWorker,
		AccessTokens: tokenCache,
		DAVCache:     davCache,
		TaskQueue:    taskManager,
		StateManager: stateManager,
		Broadcast:    deps.BroadcastSender,
	}, nil
}

// searchIndexBatchSize bounds how many pending documents one
// reconciliation cycle folds in, matching internal/searchindex's
// Worker contract.
const searchIndexBatchSize = 256

func openStorage(cfg config.StorageConfig) (storage.Engine, error) {
	switch cfg.Backend {
	case "memory":
		return storage.NewMemEngine(), nil
	case "bolt", "":
		return storage.OpenBoltEngine(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
