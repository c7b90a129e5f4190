// Package taskqueue implements the four typed background task
// flavors spec.md §4.10 names (search-index updates, calendar alarms,
// iTIP/iMIP scheduling messages, and contact/event merges), queued as
// TaskQueue subspace rows whose key embeds the due time directly so a
// bounded iterate([now_floor, now+window)) enumerates ready work in
// due order without a secondary index.
//
// Manager's ticker-driven dispatch loop is cuemby-warren/pkg/scheduler/
// scheduler.go's run/schedule shape; the one-handler-file-per-kind
// layout (indexworker.go/alarmworker.go/imipworker.go/mergeworker.go)
// mirrors how cuemby-warren/pkg/worker splits secrets.go/dns.go/
// volumes.go/health_monitor.go by concern rather than one large
// dispatch switch. Cooperative leasing replaces the teacher's
// single-node assumption: TryLock CASes a short-lived lock row in the
// ephemeral InMemory subspace (internal/keys), and Manager reaps
// entries whose revision did not advance in the most recent cycle.
package taskqueue
