package searchindex

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/cuemby/storectl/pkg/log"
	"github.com/cuemby/storectl/pkg/metrics"
)

// Source supplies the index worker with documents due for
// reconciliation and acknowledges them once folded into a Backend.
// The caller supplies the implementation; nothing in internal/taskqueue
// implements Source, and the worker itself stays decoupled from the
// task queue's lease protocol.
type Source interface {
	Pending(ctx context.Context, limit int) ([]Document, error)
	Ack(ctx context.Context, documents []Document) error
}

// Worker periodically coalesces up to batchSize pending documents and
// forwards them to backend, per spec.md §4.7's worker path. Its
// ticker-loop shape follows cuemby-warren/pkg/scheduler/scheduler.go's
// run/schedule (Start/Stop/stopCh, one cycle per tick, log-and-
// continue on a cycle error).
type Worker struct {
	source    Source
	backend   Backend
	batchSize int
	interval  time.Duration

	logger zerolog.Logger
	stopCh chan struct{}
}

// NewWorker builds a Worker that reconciles up to batchSize documents
// from source into backend every interval.
func NewWorker(source Source, backend Backend, batchSize int, interval time.Duration) *Worker {
	return &Worker{
		source:    source,
		backend:   backend,
		batchSize: batchSize,
		interval:  interval,
		logger:    log.WithComponent("search-index-worker"),
		stopCh:    make(chan struct{}),
	}
}

// Start begins the reconciliation loop.
func (w *Worker) Start() {
	go w.run()
}

// Stop ends the reconciliation loop.
func (w *Worker) Stop() {
	close(w.stopCh)
}

func (w *Worker) run() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.reconcile(context.Background()); err != nil {
				w.logger.Error().Err(err).Msg("search index reconciliation cycle failed")
			}
		case <-w.stopCh:
			return
		}
	}
}

func (w *Worker) reconcile(ctx context.Context) error {
	metrics.SearchIndexCyclesTotal.Inc()

	documents, err := w.source.Pending(ctx, w.batchSize)
	if err != nil {
		return err
	}
	if len(documents) == 0 {
		return nil
	}

	if err := w.backend.Index(ctx, documents); err != nil {
		return err
	}

	return w.source.Ack(ctx, documents)
}
