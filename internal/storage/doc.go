/*
Package storage defines the storage engine abstraction every subspace
in this repository is built on, plus two backends that implement it.

The teacher's pkg/storage/boltdb.go gives each entity kind its own
bbolt bucket and its own hand-written Get/List/Update/Delete methods.
This package generalizes that shape one level down: there is exactly
one flat keyspace (keys.Subspace is the discriminator that used to be
the bucket name), and every caller goes through the same five
operations — Get, Iterate, Write, CounterAdd, DeleteSubspace — instead
of one method pair per entity.

Two backends implement Engine:
  - boltengine wraps go.etcd.io/bbolt the same way BoltStore did,
    single bucket, db.View/db.Update transactions giving natural
    single-writer serialization.
  - memengine is a sync.RWMutex-guarded in-memory map used by tests
    and single-node development, trading durability for zero setup
    cost.

Write is the only way to mutate the store. A WriteBatch is an ordered
list of Put/Delete/AssertHash/CounterAdd operations applied atomically:
either every operation in the batch lands, or (on an AssertHash
mismatch) none does, and the caller gets trace.AssertFailed.
*/
package storage
