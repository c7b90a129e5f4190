package core

import (
	"context"

	"github.com/cuemby/storectl/internal/accesstoken"
	"github.com/cuemby/storectl/internal/acl"
	"github.com/cuemby/storectl/internal/batch"
	"github.com/cuemby/storectl/internal/blob"
	"github.com/cuemby/storectl/internal/davcache"
	"github.com/cuemby/storectl/internal/searchindex"
	"github.com/cuemby/storectl/internal/statemgr"
	"github.com/cuemby/storectl/internal/storage"
	"github.com/cuemby/storectl/internal/taskqueue"
)

// Handle is one configuration generation's set of live sub-facilities:
// the storage engine, the replicated commit engine above it, and
// every cache or background manager spec.md's modules name. acl has no
// state of its own (it only reads Store/AccessTokens at call time), so
// it is not a field here — every acl.Evaluate call takes Store and an
// AccessToken directly.
type Handle struct {
	Store storage.Engine
	Batch *batch.Engine

	Blob        *blob.Store
	BlobSweeper *blob.Sweeper

	SearchIndex  searchindex.Backend
	SearchWorker *searchindex.Worker

	AccessTokens *accesstoken.Cache
	DAVCache     *davcache.Cache
	TaskQueue    *taskqueue.Manager
	StateManager *statemgr.Manager

	// Broadcast ships cache-invalidation and state-change events to
	// the rest of the cluster. May be nil if the deployment has no
	// gossip transport wired; InvalidatePrincipalCaches degrades to
	// local-only eviction in that case.
	Broadcast BroadcastSender
}

// Start begins every background loop the handle owns. Reconfiguration
// callers must Start the new handle before publishing it via
// Core.Reconfigure and Stop the old one only after the swap, so no
// window exists with neither handle's loops running.
func (h *Handle) Start() {
	h.BlobSweeper.Start()
	h.SearchWorker.Start()
	h.TaskQueue.Start()
	h.StateManager.Start()
}

// Stop ends every background loop and releases the storage engine.
func (h *Handle) Stop() error {
	h.BlobSweeper.Stop()
	h.SearchWorker.Stop()
	h.TaskQueue.Stop()
	h.StateManager.Stop()
	return h.Store.Close()
}

// Evaluate asks acl.Evaluate, over h.Store, whether token covers
// required. The caller supplies an already-resolved token (for example
// one obtained from h.AccessTokens); Evaluate does not look it up.
func (h *Handle) Evaluate(ctx context.Context, token *accesstoken.AccessToken, grantorAccount uint32, collection uint8, containerDocument uint32, required acl.Rights) (bool, error) {
	return acl.Evaluate(ctx, h.Store, token, grantorAccount, collection, containerDocument, required)
}
