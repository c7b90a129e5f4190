/*
Package metrics provides Prometheus metrics collection and exposition for
the storage core.

Every long-running component — the batch/raft commit log, the blob
sweeper, the search index reconciler, the task dispatcher, the state
manager — registers its own gauges, counters and histograms here at
package init and updates them inline rather than through a side-channel
collector goroutine.

# Architecture

	┌──────────────────── METRICS SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │          Prometheus Registry                │          │
	│  │  - Global DefaultRegistry                   │          │
	│  │  - MustRegister at package init             │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Metric Categories                  │          │
	│  │                                              │          │
	│  │  Storage:     op counts, op latency          │          │
	│  │  Batch/Raft:  commit duration, retries,      │          │
	│  │               leader/applied-index gauges    │          │
	│  │  Archive:     writes by discriminant,        │          │
	│  │               hash mismatches                │          │
	│  │  Blob:        puts/gets/misses, sweep cycles  │          │
	│  │  ChangeLog:   appends, truncated queries      │          │
	│  │  SearchIndex: reconcile lag, cycles, latency  │          │
	│  │  AccessToken: cache hit/miss, build latency   │          │
	│  │  DAVCache:    entries, rebuilds               │          │
	│  │  TaskQueue:   leases, attempts, reap count     │          │
	│  │  StateMgr:    subscribers, dispatched/dropped │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │          HTTP Metrics Endpoint               │          │
	│  │  - Path: /metrics                            │          │
	│  │  - Handler: promhttp.Handler()               │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────────┘

# Timer Helper

Timer is a small start-time wrapper used at call sites that need to
record a histogram observation without threading a time.Time around:

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.BatchCommitDuration)
*/
package metrics
