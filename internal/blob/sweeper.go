package blob

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cuemby/storectl/internal/batch"
	"github.com/cuemby/storectl/internal/keys"
	"github.com/cuemby/storectl/internal/storage"
	"github.com/cuemby/storectl/pkg/log"
	"github.com/cuemby/storectl/pkg/metrics"
)

// Barrier reports whether it is currently safe to physically delete
// swept blobs. Sources reveal no explicit ordering between search-index
// reconciliation and blob sweep, so this core enforces sweep-after-unindex
// itself: a nil Barrier always proceeds, but a real deployment wires one
// that holds sweeping off while the search index has work outstanding
// that might still reference a candidate blob.
type Barrier func(ctx context.Context) (bool, error)

// Sweeper periodically removes blobs that have a BlobCommit row but no
// surviving link: no owner link, and no temporary link whose expiry
// has not yet passed.
type Sweeper struct {
	store    *Store
	engine   *batch.Engine
	backend  storage.Engine
	interval time.Duration
	barrier  Barrier

	logger zerolog.Logger
	mu     sync.Mutex
	stopCh chan struct{}
}

// NewSweeper builds a Sweeper that scans backend for unreferenced
// blobs every interval and deletes their bytes from store, committing
// the bookkeeping clear through engine. barrier may be nil, in which
// case every cycle proceeds unconditionally.
func NewSweeper(store *Store, engine *batch.Engine, backend storage.Engine, interval time.Duration, barrier Barrier) *Sweeper {
	return &Sweeper{
		store:    store,
		engine:   engine,
		backend:  backend,
		interval: interval,
		barrier:  barrier,
		logger:   log.WithComponent("blob-sweeper"),
		stopCh:   make(chan struct{}),
	}
}

// Start begins the sweep loop in its own goroutine.
func (s *Sweeper) Start() {
	go s.run()
}

// Stop ends the sweep loop.
func (s *Sweeper) Stop() {
	close(s.stopCh)
}

func (s *Sweeper) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Msg("blob sweeper started")

	for {
		select {
		case <-ticker.C:
			if err := s.sweep(context.Background()); err != nil {
				s.logger.Error().Err(err).Msg("blob sweep cycle failed")
			}
		case <-s.stopCh:
			s.logger.Info().Msg("blob sweeper stopped")
			return
		}
	}
}

// sweep runs one cycle: walk the BlobCommit subspace, and for every
// hash with no surviving link, delete its bytes and clear the commit
// row.
func (s *Sweeper) sweep(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.barrier != nil {
		ready, err := s.barrier(ctx)
		if err != nil {
			return err
		}
		if !ready {
			s.logger.Debug().Msg("blob sweep deferred: barrier not clear")
			return nil
		}
	}

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.BlobSweepDuration)

	lo, hi := keys.SubspaceRange(keys.BlobCommit)
	it, err := s.backend.Iterate(ctx, lo, hi, false, false)
	if err != nil {
		return err
	}
	defer it.Close()

	var candidates []uint64
	for it.Next() {
		hash, err := keys.DecodeBlobCommitKey(it.Key())
		if err != nil {
			s.logger.Warn().Err(err).Msg("skipping malformed blob commit key")
			continue
		}
		candidates = append(candidates, hash)
	}
	if err := it.Err(); err != nil {
		return err
	}

	now := time.Now()
	for _, hash := range candidates {
		referenced, err := s.isReferenced(ctx, hash, now)
		if err != nil {
			s.logger.Error().Err(err).Uint64("hash", hash).Msg("failed to check blob links")
			continue
		}
		if referenced {
			continue
		}

		if err := s.store.Delete(hash); err != nil {
			s.logger.Error().Err(err).Uint64("hash", hash).Msg("failed to delete swept blob")
			continue
		}
		if _, err := s.engine.Commit(ctx, func() *batch.Batch {
			return Uncommit(batch.New(), hash).AddCommitPoint()
		}); err != nil {
			s.logger.Error().Err(err).Uint64("hash", hash).Msg("failed to clear swept blob commit row")
			continue
		}

		metrics.BlobSweptTotal.Inc()
	}

	return nil
}

// isReferenced reports whether hash still has an owner link, or a
// temporary link whose expiry has not passed.
func (s *Sweeper) isReferenced(ctx context.Context, hash uint64, now time.Time) (bool, error) {
	lo, hi := keys.BlobLinkRange(hash)
	it, err := s.backend.Iterate(ctx, lo, hi, false, false)
	if err != nil {
		return false, err
	}
	defer it.Close()

	for it.Next() {
		key := it.Key()
		kind, err := keys.DecodeBlobLinkKind(key)
		if err != nil {
			return false, err
		}
		if kind == keys.BlobLinkKindTemp {
			expiresAt, err := keys.DecodeBlobLinkTempExpiresAt(key)
			if err != nil {
				return false, err
			}
			if time.Unix(int64(expiresAt), 0).Before(now) {
				continue
			}
		}
		return true, nil
	}
	return false, it.Err()
}
