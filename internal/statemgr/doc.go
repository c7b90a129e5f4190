// Package statemgr implements the in-process pub/sub state-change
// router spec.md §4.11 describes: one long-lived Manager per process
// routes committed-batch state changes to subscribers (long-poll/push/
// WebSocket endpoints above this storage core), maintaining a derived
// shared-account view alongside the direct per-account subscriber map.
//
// Manager's run loop and subscriber bookkeeping are
// cuemby-warren/pkg/events/events.go's Broker generalized two ways:
// subscribers are keyed per owning account instead of one flat set (a
// subscriber only ever cares about the accounts it owns or has shared
// access to), and the plain channel Subscriber type grows an optional
// expiry so a push endpoint and an in-process channel share one
// dispatch path.
package statemgr
