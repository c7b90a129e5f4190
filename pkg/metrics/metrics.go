package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Storage engine metrics

	StorageOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storectl_storage_ops_total",
			Help: "Total storage engine operations by backend, entity subspace and outcome",
		},
		[]string{"backend", "subspace", "outcome"},
	)

	StorageOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storectl_storage_op_duration_seconds",
			Help:    "Storage engine operation duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "subspace"},
	)

	// Batch / transaction engine metrics

	BatchCommitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storectl_batch_commits_total",
			Help: "Total batch commit attempts by outcome",
		},
		[]string{"outcome"},
	)

	BatchCommitDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "storectl_batch_commit_duration_seconds",
		Help:    "Time to commit a batch, including retries",
		Buckets: prometheus.DefBuckets,
	})

	BatchRetriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storectl_batch_retries_total",
		Help: "Total batch re-attempts after store contention",
	})

	RaftLeader = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "storectl_raft_leader",
		Help: "1 if this node is the current raft leader for the batch/broadcast log",
	})

	RaftAppliedIndex = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "storectl_raft_applied_index",
		Help: "Last raft log index applied to the FSM",
	})

	// Archive layer metrics

	ArchiveWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storectl_archive_writes_total",
			Help: "Total archive writes by version discriminant",
		},
		[]string{"discriminant"},
	)

	ArchiveHashMismatchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storectl_archive_hash_mismatches_total",
		Help: "Total archive reads whose stored content hash did not match the computed hash",
	})

	// Blob store metrics

	BlobPutsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storectl_blob_puts_total",
		Help: "Total blob store writes",
	})

	BlobGetsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storectl_blob_gets_total",
		Help: "Total blob store reads",
	})

	BlobMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storectl_blob_misses_total",
		Help: "Total blob reads for a hash with no backing bytes",
	})

	BlobBytesWritten = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storectl_blob_bytes_written_total",
		Help: "Total bytes written to the blob backend",
	})

	BlobSweepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "storectl_blob_sweep_duration_seconds",
		Help:    "Duration of a blob sweep cycle",
		Buckets: prometheus.DefBuckets,
	})

	BlobSweptTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storectl_blob_swept_total",
		Help: "Total unreferenced blobs removed by a sweep cycle",
	})

	// Change log metrics

	ChangeLogAppendsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storectl_changelog_appends_total",
		Help: "Total change log entries appended",
	})

	ChangeLogTruncationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storectl_changelog_truncations_total",
		Help: "Total queries answered with is_truncated=true",
	})

	// Search index metrics

	SearchIndexLag = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "storectl_searchindex_lag",
			Help: "Change log entries not yet reflected in the search index, by account",
		},
		[]string{"account"},
	)

	SearchIndexCyclesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storectl_searchindex_reconcile_cycles_total",
		Help: "Total search index reconciliation cycles run",
	})

	SearchQueryDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "storectl_searchindex_query_duration_seconds",
		Help:    "Duration of a search index predicate evaluation",
		Buckets: prometheus.DefBuckets,
	})

	// Access token cache metrics

	AccessTokenCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storectl_accesstoken_cache_hits_total",
		Help: "Total access token cache hits",
	})

	AccessTokenCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storectl_accesstoken_cache_misses_total",
		Help: "Total access token cache misses",
	})

	AccessTokenBuildDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "storectl_accesstoken_build_duration_seconds",
		Help:    "Duration of building an access token from storage on a cache miss",
		Buckets: prometheus.DefBuckets,
	})

	// Groupware resource cache metrics

	DAVCacheEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "storectl_davcache_entries",
		Help: "Current number of cached groupware resource trees",
	})

	DAVCacheRebuildsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storectl_davcache_rebuilds_total",
		Help: "Total groupware resource cache rebuilds",
	})

	// Task queue metrics

	TaskQueueLeasesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storectl_taskqueue_leases_total",
			Help: "Total task leases acquired by kind",
		},
		[]string{"kind"},
	)

	TaskQueueAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storectl_taskqueue_attempts_total",
			Help: "Total task execution attempts by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	TaskQueueReapedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storectl_taskqueue_reaped_total",
		Help: "Total expired leases reclaimed by the reaper",
	})

	TaskQueueDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storectl_taskqueue_duration_seconds",
			Help:    "Task execution duration by kind",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// State manager (pub/sub) metrics

	StateSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "storectl_statemgr_subscribers",
		Help: "Current number of live state change subscribers",
	})

	StateDispatchedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storectl_statemgr_dispatched_total",
		Help: "Total state change notifications dispatched to subscribers",
	})

	StateDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storectl_statemgr_dropped_total",
		Help: "Total state change notifications dropped after the send timeout elapsed",
	})
)

func init() {
	prometheus.MustRegister(StorageOpsTotal)
	prometheus.MustRegister(StorageOpDuration)

	prometheus.MustRegister(BatchCommitsTotal)
	prometheus.MustRegister(BatchCommitDuration)
	prometheus.MustRegister(BatchRetriesTotal)
	prometheus.MustRegister(RaftLeader)
	prometheus.MustRegister(RaftAppliedIndex)

	prometheus.MustRegister(ArchiveWritesTotal)
	prometheus.MustRegister(ArchiveHashMismatchesTotal)

	prometheus.MustRegister(BlobPutsTotal)
	prometheus.MustRegister(BlobGetsTotal)
	prometheus.MustRegister(BlobMissesTotal)
	prometheus.MustRegister(BlobBytesWritten)
	prometheus.MustRegister(BlobSweepDuration)
	prometheus.MustRegister(BlobSweptTotal)

	prometheus.MustRegister(ChangeLogAppendsTotal)
	prometheus.MustRegister(ChangeLogTruncationsTotal)

	prometheus.MustRegister(SearchIndexLag)
	prometheus.MustRegister(SearchIndexCyclesTotal)
	prometheus.MustRegister(SearchQueryDuration)

	prometheus.MustRegister(AccessTokenCacheHitsTotal)
	prometheus.MustRegister(AccessTokenCacheMissesTotal)
	prometheus.MustRegister(AccessTokenBuildDuration)

	prometheus.MustRegister(DAVCacheEntries)
	prometheus.MustRegister(DAVCacheRebuildsTotal)

	prometheus.MustRegister(TaskQueueLeasesTotal)
	prometheus.MustRegister(TaskQueueAttemptsTotal)
	prometheus.MustRegister(TaskQueueReapedTotal)
	prometheus.MustRegister(TaskQueueDuration)

	prometheus.MustRegister(StateSubscribers)
	prometheus.MustRegister(StateDispatchedTotal)
	prometheus.MustRegister(StateDroppedTotal)
}

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a convenience wrapper for measuring and recording durations.
type Timer struct {
	start time.Time
}

// NewTimer starts a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration records the elapsed time to a histogram.
func (t *Timer) ObserveDuration(h prometheus.Histogram) {
	h.Observe(t.Duration().Seconds())
}

// ObserveDurationVec records the elapsed time to a histogram vec with the given label values.
func (t *Timer) ObserveDurationVec(h *prometheus.HistogramVec, labelValues ...string) {
	h.WithLabelValues(labelValues...).Observe(t.Duration().Seconds())
}
