// Package core composes the storage engine and every cache/background
// facility above it into the single process-wide handle spec.md §9
// describes: "a singleton-shaped handle composed of typed
// sub-facilities ... reconfigured atomically by swapping the shared
// handle."
//
// Handle's construction is grounded on cuemby-warren/pkg/manager/
// manager.go's NewManager, which builds a BoltDB store, FSM, token
// manager, CA, and event broker in sequence and wires them into one
// struct; Core generalizes the struct itself into a hot-swappable
// atomic pointer, since the teacher's Manager is never replaced after
// construction but spec.md §9 requires reconfiguration without
// downtime.
package core
