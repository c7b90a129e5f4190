package taskqueue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/raft"

	"github.com/cuemby/storectl/internal/batch"
	"github.com/cuemby/storectl/internal/storage"
	"github.com/cuemby/storectl/pkg/config"
)

func newTaskQueueTestEngine(t *testing.T, bindAddr string) (*batch.Engine, storage.Engine) {
	t.Helper()

	backend := storage.NewMemEngine()
	e, err := batch.NewEngine(batch.EngineConfig{
		NodeID:    "node-1",
		BindAddr:  bindAddr,
		DataDir:   t.TempDir(),
		Store:     backend,
		Batch:     config.BatchConfig{MaxAttempts: 5, MaxDuration: 2 * time.Second},
		Bootstrap: true,
	})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	t.Cleanup(func() { e.Raft().Shutdown().Error() })

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if e.Raft().State() == raft.Leader {
			return e, backend
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("raft node never became leader")
	return nil, nil
}

type countingHandler struct {
	mu    sync.Mutex
	calls []Task
	err   error
}

func (h *countingHandler) Handle(_ context.Context, task Task) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, task)
	return h.err
}

func (h *countingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.calls)
}

func testTaskQueueConfig() config.TaskQueueConfig {
	return config.TaskQueueConfig{
		LeaseDuration:  time.Minute,
		PollInterval:   time.Hour, // driven manually in tests via dispatch()
		ReapInterval:   time.Hour,
		MaxAttempts:    3,
		WorkerPoolSize: 2,
	}
}

func TestManager_DispatchLeasesAndExecutesReadyTask(t *testing.T) {
	ctx := context.Background()
	engine, backend := newTaskQueueTestEngine(t, "127.0.0.1:19281")

	if _, err := engine.Commit(ctx, func() *batch.Batch {
		return Enqueue(batch.New(), KindIndexUpdate, 1, 7, []byte("payload"), time.Now().Add(-time.Second))
	}); err != nil {
		t.Fatalf("Enqueue commit error = %v", err)
	}

	handler := &countingHandler{}
	mgr := NewManager(backend, engine, testTaskQueueConfig(), map[Kind]Handler{KindIndexUpdate: handler})
	mgr.Start()
	defer mgr.Stop()

	if err := mgr.dispatch(ctx); err != nil {
		t.Fatalf("dispatch() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && handler.count() == 0 {
		time.Sleep(10 * time.Millisecond)
	}
	if handler.count() != 1 {
		t.Fatalf("handler invocation count = %d, want 1", handler.count())
	}
}

func TestManager_DispatchSkipsAlreadyLeasedTask(t *testing.T) {
	ctx := context.Background()
	engine, backend := newTaskQueueTestEngine(t, "127.0.0.1:19282")

	if _, err := engine.Commit(ctx, func() *batch.Batch {
		return Enqueue(batch.New(), KindAlarm, 1, 9, []byte("payload"), time.Now().Add(-time.Second))
	}); err != nil {
		t.Fatalf("Enqueue commit error = %v", err)
	}

	handler := &countingHandler{}
	mgr := NewManager(backend, engine, testTaskQueueConfig(), map[Kind]Handler{KindAlarm: handler})

	if err := mgr.dispatch(ctx); err != nil {
		t.Fatalf("first dispatch() error = %v", err)
	}
	if err := mgr.dispatch(ctx); err != nil {
		t.Fatalf("second dispatch() error = %v", err)
	}

	// Drain whatever the first dispatch queued so the channel length
	// reflects only what the second dispatch contributed.
	drained := 0
	for {
		select {
		case <-mgr.tasks:
			drained++
		default:
			if drained != 1 {
				t.Fatalf("total tasks dispatched across two cycles = %d, want 1 (second cycle should have been locked out)", drained)
			}
			return
		}
	}
}

func TestManager_ReapEvictsUnrenewedLeases(t *testing.T) {
	mgr := &Manager{leases: newLocalLeases()}
	mgr.leases.observe("stale", 1)
	mgr.revision = 2

	mgr.reap()

	mgr.leases.mu.Lock()
	_, stillPresent := mgr.leases.entries["stale"]
	mgr.leases.mu.Unlock()
	if stillPresent {
		t.Error("reap() left a lease from a prior revision in place")
	}
}
