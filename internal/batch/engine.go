package batch

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb"

	"github.com/cuemby/storectl/internal/storage"
	"github.com/cuemby/storectl/pkg/config"
	"github.com/cuemby/storectl/pkg/metrics"
	"github.com/cuemby/storectl/pkg/trace"
)

// EngineConfig configures a raft-backed Engine. It carries the same
// bootstrap knobs as the teacher's Manager.Config/Bootstrap, plus the
// retry bounds from pkg/config.BatchConfig.
type EngineConfig struct {
	NodeID   string
	BindAddr string
	DataDir  string
	Store    storage.Engine
	Batch    config.BatchConfig

	// Bootstrap starts a new single-node cluster. Joining an existing
	// cluster is out of scope for this layer; a caller manages cluster
	// membership changes (AddVoter/RemoveServer) against Raft directly.
	Bootstrap bool
}

// Engine replicates resolved commit points through hashicorp/raft and
// retries a whole Batch, commit point by commit point, on contention.
type Engine struct {
	raft  *raft.Raft
	fsm   *FSM
	store storage.Engine

	maxAttempts int
	maxDuration time.Duration
}

// NewEngine sets up the raft transport, snapshot store, and log/stable
// stores exactly the way the teacher's Manager.Bootstrap does, timeouts
// included, then wraps cfg.Store in an FSM.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	fsm := NewFSM(cfg.Store)

	raftConfig := raft.DefaultConfig()
	raftConfig.LocalID = raft.ServerID(cfg.NodeID)

	// Tuned for edge/LAN deployments rather than raft's WAN-conservative
	// defaults (HeartbeatTimeout=1s, ElectionTimeout=1s,
	// LeaderLeaseTimeout=500ms): a stuck leader should be detected and
	// replaced in a couple of seconds, not ten.
	raftConfig.HeartbeatTimeout = 500 * time.Millisecond
	raftConfig.ElectionTimeout = 500 * time.Millisecond
	raftConfig.CommitTimeout = 50 * time.Millisecond
	raftConfig.LeaderLeaseTimeout = 250 * time.Millisecond

	addr, err := net.ResolveTCPAddr("tcp", cfg.BindAddr)
	if err != nil {
		return nil, trace.WrapErr(trace.Backend, "resolve bind address", err)
	}

	transport, err := raft.NewTCPTransport(cfg.BindAddr, addr, 3, 10*time.Second, os.Stderr)
	if err != nil {
		return nil, trace.WrapErr(trace.Backend, "create raft transport", err)
	}

	snapshotStore, err := raft.NewFileSnapshotStore(cfg.DataDir, 2, os.Stderr)
	if err != nil {
		return nil, trace.WrapErr(trace.Backend, "create snapshot store", err)
	}

	logStore, err := raftboltdb.NewBoltStore(filepath.Join(cfg.DataDir, "raft-log.db"))
	if err != nil {
		return nil, trace.WrapErr(trace.Backend, "create raft log store", err)
	}

	stableStore, err := raftboltdb.NewBoltStore(filepath.Join(cfg.DataDir, "raft-stable.db"))
	if err != nil {
		return nil, trace.WrapErr(trace.Backend, "create raft stable store", err)
	}

	r, err := raft.NewRaft(raftConfig, fsm, logStore, stableStore, snapshotStore, transport)
	if err != nil {
		return nil, trace.WrapErr(trace.Backend, "create raft node", err)
	}

	if cfg.Bootstrap {
		configuration := raft.Configuration{
			Servers: []raft.Server{{ID: raftConfig.LocalID, Address: transport.LocalAddr()}},
		}
		if err := r.BootstrapCluster(configuration).Error(); err != nil {
			return nil, trace.WrapErr(trace.Backend, "bootstrap raft cluster", err)
		}
	}

	maxAttempts := cfg.Batch.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	maxDuration := cfg.Batch.MaxDuration
	if maxDuration <= 0 {
		maxDuration = 10 * time.Second
	}

	return &Engine{
		raft:        r,
		fsm:         fsm,
		store:       cfg.Store,
		maxAttempts: maxAttempts,
		maxDuration: maxDuration,
	}, nil
}

// Raft returns the underlying raft.Raft node, so a caller can observe
// leadership changes or manage cluster membership.
func (e *Engine) Raft() *raft.Raft {
	return e.raft
}

const applyTimeout = 5 * time.Second

// Commit resolves and replicates build's commit points in order,
// retrying the whole Batch from scratch on contention up to
// MaxAttempts times or MaxDuration, whichever comes first, per
// spec.md's commit algorithm. build is re-invoked on every attempt so
// MergeFnc/AssertValue steps re-read pre-images that may have changed
// since the prior attempt.
func (e *Engine) Commit(ctx context.Context, build func() *Batch) (*AssignedIds, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.BatchCommitDuration)

	start := time.Now()
	backoff := 10 * time.Millisecond

	for attempt := 1; ; attempt++ {
		e.reportLeadership()

		b := build()
		assigned, err := e.commitGroups(ctx, b.commitPoints())
		if err == nil {
			metrics.BatchCommitsTotal.WithLabelValues("committed").Inc()
			return assigned, nil
		}

		if !trace.Is(err, trace.AssertFailed) && !trace.Is(err, trace.StoreContention) {
			metrics.BatchCommitsTotal.WithLabelValues("error").Inc()
			return nil, err
		}

		metrics.BatchRetriesTotal.Inc()

		if attempt >= e.maxAttempts || time.Since(start) >= e.maxDuration {
			metrics.BatchCommitsTotal.WithLabelValues("contention").Inc()
			return nil, trace.Wrap(trace.StoreContention, "batch exhausted %d attempts in %s", attempt, time.Since(start))
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > time.Second {
			backoff = time.Second
		}
	}
}

// commitGroups resolves and replicates every commit point of one Batch
// attempt, accumulating AssignedIds as it goes so a later commit point
// can reference ids a prior one produced. A failure on commit point N
// leaves commit points before it durably applied: per the per-commit-
// point durability model, only the whole Batch is retried, not undone.
func (e *Engine) commitGroups(ctx context.Context, groups [][]step) (*AssignedIds, error) {
	assigned := newAssignedIds()

	for _, group := range groups {
		wb, logRows, resultNames, err := e.resolveGroup(ctx, group, assigned)
		if err != nil {
			return nil, err
		}

		result, err := e.replicate(ctx, wb, logRows)
		if err != nil {
			return nil, err
		}
		assigned.merge(result, resultNames)
	}

	return assigned, nil
}

// resolveGroup materializes one commit point's steps into a concrete
// storage.WriteBatch plus any change-log rows it needs written: SetFnc/
// MergeFnc callbacks run now, MergeFnc against a fresh read of the
// key's current value; a Log step only claims its change id (a
// CounterAdd on the account/syncCollection's change counter) here — the
// FSM writes the row itself once that counter has actually advanced.
func (e *Engine) resolveGroup(ctx context.Context, group []step, assigned *AssignedIds) (*storage.WriteBatch, []logRow, map[string]string, error) {
	wb := storage.NewWriteBatch()
	resultNames := make(map[string]string)
	var logRows []logRow

	for _, s := range group {
		switch s.kind {
		case stepSet:
			wb.Put(s.key, s.value)

		case stepSetFnc:
			value, err := s.setFnc(assigned)
			if err != nil {
				return nil, nil, nil, err
			}
			wb.Put(s.key, value)

		case stepMergeFnc:
			current, err := e.store.Get(ctx, s.key)
			if err != nil {
				return nil, nil, nil, err
			}
			value, err := s.mergeFnc(current, assigned)
			if err != nil {
				return nil, nil, nil, err
			}
			wb.Put(s.key, value)

		case stepClear:
			wb.Delete(s.key)

		case stepAssertValue:
			wb.AssertHash(s.key, s.wantHash)

		case stepCounterAdd:
			wb.CounterAdd(s.key, s.delta)

		case stepAddAndGet:
			wb.CounterAdd(s.key, s.delta)
			resultNames[string(s.key)] = s.resultName

		case stepIndex:
			if s.indexSet {
				wb.Put(s.key, nil)
			} else {
				wb.Delete(s.key)
			}

		case stepLog:
			counterKey := changeCounterKeyBytes(s.logAccount, s.logSyncCollection)
			wb.CounterAdd(counterKey, 1)
			logRows = append(logRows, logRow{
				Account: s.logAccount, SyncCollection: s.logSyncCollection, Payload: s.logBytes,
				VanishedPath: s.logVanishedPath,
			})
		}
	}

	return wb, logRows, resultNames, nil
}

// replicate submits wb and logRows through raft and waits for the
// FSM's response.
func (e *Engine) replicate(ctx context.Context, wb *storage.WriteBatch, logRows []logRow) (*storage.WriteResult, error) {
	data, err := json.Marshal(command{Ops: wb.Ops, LogRows: logRows})
	if err != nil {
		return nil, trace.WrapErr(trace.Decode, "marshal batch command", err)
	}

	future := e.raft.Apply(data, applyTimeout)
	if err := future.Error(); err != nil {
		return nil, trace.WrapErr(trace.Backend, "raft apply", err)
	}

	resp, ok := future.Response().(*applyResult)
	if !ok {
		return nil, trace.Wrap(trace.Backend, "unexpected raft apply response type %T", future.Response())
	}
	if resp.err != nil {
		return nil, resp.err
	}

	metrics.RaftAppliedIndex.Set(float64(future.Index()))
	return resp.result, nil
}

func (e *Engine) reportLeadership() {
	if e.raft.State() == raft.Leader {
		metrics.RaftLeader.Set(1)
	} else {
		metrics.RaftLeader.Set(0)
	}
}
