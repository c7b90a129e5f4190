/*
Package batch implements the batch builder and transaction engine: the
only way any other package mutates internal/storage.

A Batch is an ordered sequence of typed operations (Set, SetFnc,
MergeFnc, CounterAdd, AddAndGet, AssertValue, Index, Log) grouped into
commit points. Engine.Commit resolves one commit point at a time into a
concrete storage.WriteBatch — reading pre-images for MergeFnc, turning
AssertValue into a storage-level hash precondition that the backend
checks at write time, resolving SetFnc against ids assigned by earlier commit
points in the same Batch — then replicates it through hashicorp/raft
exactly the way the teacher's Manager.Apply submits a Command to
*raft.Raft and waits for the FSM's response.

Where the teacher's pkg/manager/fsm.go switches on a fixed set of named
Commands ("create_node", "update_node", ...) and calls one store method
per case, this package's FSM.Apply only ever does one thing: unmarshal
an already-resolved storage.WriteBatch and call storage.Engine.Write.
All of the typed-operation resolution happens on the submitting node,
before replication, which is what lets Engine.Commit retry a failed
commit point by re-running the caller's build function rather than
replaying raft log entries.

Durability is per-commit-point: a Batch spanning several commit points
is not atomic across them, only within each one.
*/
package batch
