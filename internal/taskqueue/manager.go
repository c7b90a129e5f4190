package taskqueue

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cuemby/storectl/internal/batch"
	"github.com/cuemby/storectl/internal/keys"
	"github.com/cuemby/storectl/internal/storage"
	"github.com/cuemby/storectl/pkg/config"
	"github.com/cuemby/storectl/pkg/log"
	"github.com/cuemby/storectl/pkg/metrics"
)

// rescheduleBase and rescheduleMax bound a failed task's backoff; they
// are independent of the lease duration, which only governs how long
// one worker holds a task before another may retry it.
const (
	rescheduleBase = time.Second
	rescheduleMax  = time.Hour
)

// Manager is the dispatch loop that scans the TaskQueue subspace for
// ready work, leases it cooperatively via TryLock, and hands it to the
// Handler registered for its Kind.
type Manager struct {
	store    storage.Engine
	engine   *batch.Engine
	cfg      config.TaskQueueConfig
	handlers map[Kind]Handler

	leases *localLeases

	logger zerolog.Logger
	tasks  chan Task
	stopCh chan struct{}

	mu       sync.Mutex
	revision uint64
}

// NewManager builds a Manager that dispatches leased tasks across
// cfg.WorkerPoolSize goroutines. handlers need not cover every Kind;
// kinds with no registered handler are skipped each dispatch cycle.
func NewManager(store storage.Engine, engine *batch.Engine, cfg config.TaskQueueConfig, handlers map[Kind]Handler) *Manager {
	return &Manager{
		store:    store,
		engine:   engine,
		cfg:      cfg,
		handlers: handlers,
		leases:   newLocalLeases(),
		logger:   log.WithComponent("taskqueue-manager"),
		tasks:    make(chan Task, cfg.WorkerPoolSize*4),
		stopCh:   make(chan struct{}),
	}
}

// Start launches the worker pool and the dispatch/reap loop.
func (m *Manager) Start() {
	for i := 0; i < m.cfg.WorkerPoolSize; i++ {
		go m.worker()
	}
	go m.run()
}

// Stop ends the dispatch loop and every worker goroutine.
func (m *Manager) Stop() {
	close(m.stopCh)
}

func (m *Manager) run() {
	dispatchTicker := time.NewTicker(m.cfg.PollInterval)
	reapTicker := time.NewTicker(m.cfg.ReapInterval)
	defer dispatchTicker.Stop()
	defer reapTicker.Stop()

	for {
		select {
		case <-dispatchTicker.C:
			if err := m.dispatch(context.Background()); err != nil {
				m.logger.Error().Err(err).Msg("task dispatch cycle failed")
			}
		case <-reapTicker.C:
			m.reap()
		case <-m.stopCh:
			return
		}
	}
}

// dispatch runs one scan-and-lease cycle over every registered kind,
// in a shuffled order so one kind's backlog cannot starve the others
// within the same cycle.
func (m *Manager) dispatch(ctx context.Context) error {
	m.mu.Lock()
	m.revision++
	revision := m.revision
	m.mu.Unlock()

	kinds := make([]Kind, 0, len(m.handlers))
	for k := range m.handlers {
		kinds = append(kinds, k)
	}
	rand.Shuffle(len(kinds), func(i, j int) { kinds[i], kinds[j] = kinds[j], kinds[i] })

	now := time.Now()
	for _, kind := range kinds {
		if err := m.dispatchKind(ctx, kind, now, revision); err != nil {
			m.logger.Error().Err(err).Stringer("kind", kind).Msg("dispatch failed for task kind")
		}
	}
	return nil
}

func (m *Manager) dispatchKind(ctx context.Context, kind Kind, now time.Time, revision uint64) error {
	lo, hi := keys.TaskQueueDueRange(uint8(kind), 0, encodeDue(now.Add(time.Second), 0))
	it, err := m.store.Iterate(ctx, lo, hi, false, true)
	if err != nil {
		return err
	}
	defer it.Close()

	for it.Next() {
		due, account, document, err := keys.DecodeTaskQueueKey(it.Key())
		if err != nil {
			m.logger.Warn().Err(err).Msg("skipping malformed task queue key")
			continue
		}

		lockKey := fmt.Sprintf("taskqueue/%d/%d/%d/%d", kind, due, account, document)
		locked, err := TryLock(ctx, m.store, lockKey, now.Add(m.cfg.LeaseDuration))
		if err != nil {
			return err
		}
		if !locked {
			continue
		}
		m.leases.observe(lockKey, revision)
		metrics.TaskQueueLeasesTotal.WithLabelValues(kind.String()).Inc()

		runAt, attempt := decodeDue(due)
		task := Task{
			Kind:     kind,
			Account:  account,
			Document: document,
			Payload:  append([]byte(nil), it.Value()...),
			Due:      runAt,
			Attempt:  attempt,
		}

		select {
		case m.tasks <- task:
		default:
			m.logger.Warn().Stringer("kind", kind).Msg("dispatch channel full, task retried next cycle")
		}
	}
	return it.Err()
}

// reap drops local lease bookkeeping for any lock this manager did not
// newly acquire in the most recent dispatch cycle: the task finished,
// its lease went to another node, or this node's own lease was still
// live and so was not re-locked.
func (m *Manager) reap() {
	m.mu.Lock()
	revision := m.revision
	m.mu.Unlock()

	if n := m.leases.reap(revision); n > 0 {
		metrics.TaskQueueReapedTotal.Add(float64(n))
	}
}

func (m *Manager) worker() {
	for {
		select {
		case task, ok := <-m.tasks:
			if !ok {
				return
			}
			m.execute(task)
		case <-m.stopCh:
			return
		}
	}
}

func (m *Manager) execute(task Task) {
	handler, ok := m.handlers[task.Kind]
	if !ok {
		m.logger.Warn().Stringer("kind", task.Kind).Msg("no handler registered for task kind")
		return
	}

	ctx := context.Background()
	timer := metrics.NewTimer()
	err := handler.Handle(ctx, task)
	timer.ObserveDuration(metrics.TaskQueueDuration.WithLabelValues(task.Kind.String()))

	due := encodeDue(task.Due, task.Attempt)

	if err == nil {
		metrics.TaskQueueAttemptsTotal.WithLabelValues(task.Kind.String(), "success").Inc()
		m.commitOrLog(ctx, func() *batch.Batch {
			return Complete(batch.New(), task.Kind, task.Account, task.Document, due)
		}, "failed to commit task completion")
		return
	}

	metrics.TaskQueueAttemptsTotal.WithLabelValues(task.Kind.String(), "failure").Inc()

	if int(task.Attempt)+1 >= m.cfg.MaxAttempts {
		m.logger.Error().Err(err).
			Stringer("kind", task.Kind).
			Uint32("account", task.Account).
			Uint32("document", task.Document).
			Msg("task exhausted retry attempts, dropping")
		m.commitOrLog(ctx, func() *batch.Batch {
			return Complete(batch.New(), task.Kind, task.Account, task.Document, due)
		}, "failed to commit exhausted task drop")
		return
	}

	m.commitOrLog(ctx, func() *batch.Batch {
		return Reschedule(batch.New(), task.Kind, task.Account, task.Document, task.Payload, due, task.Attempt+1, rescheduleBase, rescheduleMax)
	}, "failed to commit task reschedule")
}

func (m *Manager) commitOrLog(ctx context.Context, build func() *batch.Batch, msg string) {
	if _, err := m.engine.Commit(ctx, build); err != nil {
		m.logger.Error().Err(err).Msg(msg)
	}
}
