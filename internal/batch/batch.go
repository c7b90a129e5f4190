package batch

import (
	"fmt"

	"github.com/cuemby/storectl/internal/keys"
	"github.com/cuemby/storectl/internal/storage"
)

// SetFunc computes a value to store once ids assigned earlier in the
// same Batch (by an AddAndGet or a prior commit point's Log) are known.
type SetFunc func(assigned *AssignedIds) ([]byte, error)

// MergeFunc computes a new value from the value currently stored at
// the same key (nil if absent) plus ids assigned so far in the Batch.
type MergeFunc func(current []byte, assigned *AssignedIds) ([]byte, error)

type stepKind uint8

const (
	stepSet stepKind = iota
	stepSetFnc
	stepMergeFnc
	stepClear
	stepAssertValue
	stepCounterAdd
	stepAddAndGet
	stepIndex
	stepLog
)

type step struct {
	kind stepKind
	key  []byte

	value    []byte
	setFnc   SetFunc
	mergeFnc MergeFunc

	wantHash uint32

	delta      int64
	resultName string

	indexSet bool

	logAccount        uint32
	logSyncCollection uint8
	logBytes          []byte
	logVanishedPath   string
}

// Batch is an ordered sequence of operations grouped into commit
// points. AccountID/Collection/DocumentID set the active tuple that
// Set/SetFnc/MergeFnc/Clear/AssertValue/Index address; Log and
// CounterAdd/AddAndGet name their own key directly since they are not
// scoped to a single document.
type Batch struct {
	accountID  uint32
	collection uint8
	documentID uint32

	groups  [][]step
	pending []step
}

// New starts an empty Batch.
func New() *Batch {
	return &Batch{groups: nil, pending: nil}
}

// AccountID sets the active account for subsequent document-scoped
// operations.
func (b *Batch) AccountID(id uint32) *Batch {
	b.accountID = id
	return b
}

// Collection sets the active collection for subsequent document-scoped
// operations.
func (b *Batch) Collection(c uint8) *Batch {
	b.collection = c
	return b
}

// DocumentID sets the active document for subsequent property/index
// operations.
func (b *Batch) DocumentID(id uint32) *Batch {
	b.documentID = id
	return b
}

func (b *Batch) propertyKey(field uint8) []byte {
	return keys.PropertyKey(b.accountID, b.collection, b.documentID, field)
}

// Set writes value at the active tuple's field unconditionally.
func (b *Batch) Set(field uint8, value []byte) *Batch {
	b.pending = append(b.pending, step{kind: stepSet, key: b.propertyKey(field), value: value})
	return b
}

// SetFnc defers value computation until the commit point is resolved,
// once ids assigned earlier in the Batch are known.
func (b *Batch) SetFnc(field uint8, fn SetFunc) *Batch {
	b.pending = append(b.pending, step{kind: stepSetFnc, key: b.propertyKey(field), setFnc: fn})
	return b
}

// MergeFnc resolves fn against the value currently stored at the
// active tuple's field (nil if absent) when the commit point runs.
func (b *Batch) MergeFnc(field uint8, fn MergeFunc) *Batch {
	b.pending = append(b.pending, step{kind: stepMergeFnc, key: b.propertyKey(field), mergeFnc: fn})
	return b
}

// Clear deletes the active tuple's field.
func (b *Batch) Clear(field uint8) *Batch {
	b.pending = append(b.pending, step{kind: stepClear, key: b.propertyKey(field)})
	return b
}

// AssertValue fails the commit point with trace.AssertFailed unless
// the value currently stored at the active tuple's field hashes to
// wantHash. Used to detect a concurrent writer between a caller's read
// and its write.
func (b *Batch) AssertValue(field uint8, wantHash uint32) *Batch {
	b.pending = append(b.pending, step{kind: stepAssertValue, key: b.propertyKey(field), wantHash: wantHash})
	return b
}

// Index sets or clears a membership row for value under the active
// tuple's (account, collection, field, document).
func (b *Batch) Index(field uint8, value []byte, set bool) *Batch {
	key := keys.IndexKey(b.accountID, b.collection, field, value, b.documentID)
	b.pending = append(b.pending, step{kind: stepIndex, key: key, indexSet: set})
	return b
}

// PutRaw writes value at an explicit key, bypassing the active tuple.
// Used by callers addressing subspaces the active tuple does not
// describe: blob links/commits/quota, ACL rows, directory edges,
// search index postings, config rows.
func (b *Batch) PutRaw(key, value []byte) *Batch {
	b.pending = append(b.pending, step{kind: stepSet, key: key, value: value})
	return b
}

// ClearRaw deletes an explicit key.
func (b *Batch) ClearRaw(key []byte) *Batch {
	b.pending = append(b.pending, step{kind: stepClear, key: key})
	return b
}

// AssertRaw fails the commit point with trace.AssertFailed unless the
// value currently stored at key hashes to wantHash.
func (b *Batch) AssertRaw(key []byte, wantHash uint32) *Batch {
	b.pending = append(b.pending, step{kind: stepAssertValue, key: key, wantHash: wantHash})
	return b
}

// SetFncRaw is SetFnc for an explicit key.
func (b *Batch) SetFncRaw(key []byte, fn SetFunc) *Batch {
	b.pending = append(b.pending, step{kind: stepSetFnc, key: key, setFnc: fn})
	return b
}

// MergeFncRaw is MergeFnc for an explicit key.
func (b *Batch) MergeFncRaw(key []byte, fn MergeFunc) *Batch {
	b.pending = append(b.pending, step{kind: stepMergeFnc, key: key, mergeFnc: fn})
	return b
}

// CounterAdd atomically adjusts the named counter.
func (b *Batch) CounterAdd(name string, delta int64) *Batch {
	return b.CounterAddRaw(keys.CounterKey(name, 0), delta)
}

// AddAndGet atomically adjusts the named counter and records the
// post-add value in AssignedIds under resultName, so a later step in
// the same or a subsequent commit point can consume it via SetFnc or
// MergeFnc.
func (b *Batch) AddAndGet(name string, delta int64, resultName string) *Batch {
	return b.AddAndGetRaw(keys.CounterKey(name, 0), delta, resultName)
}

// CounterAddRaw is CounterAdd against an explicit key, for counters
// that do not live in the named Counter subspace (e.g. a blob quota
// row, keyed by account and content hash).
func (b *Batch) CounterAddRaw(key []byte, delta int64) *Batch {
	b.pending = append(b.pending, step{kind: stepCounterAdd, key: key, delta: delta})
	return b
}

// AddAndGetRaw is AddAndGet against an explicit key.
func (b *Batch) AddAndGetRaw(key []byte, delta int64, resultName string) *Batch {
	b.pending = append(b.pending, step{kind: stepAddAndGet, key: key, delta: delta, resultName: resultName})
	return b
}

// Log appends a change-log entry for the active account under
// syncCollection. The engine assigns the change id at commit time by
// incrementing that (account, syncCollection) pair's change counter,
// and records it in AssignedIds so later commit points in the same
// Batch can reference it (e.g. to populate a Vanished row).
func (b *Batch) Log(syncCollection uint8, payload []byte) *Batch {
	b.pending = append(b.pending, step{
		kind: stepLog, logAccount: b.accountID, logSyncCollection: syncCollection, logBytes: payload,
	})
	return b
}

// LogVanished is Log, additionally recording path under a Vanished row
// keyed by the same assigned change id — used when the change being
// logged also destroys a path-tracked resource (a CalDAV/CardDAV
// delete, not a plain item update).
func (b *Batch) LogVanished(syncCollection uint8, payload []byte, path string) *Batch {
	b.pending = append(b.pending, step{
		kind: stepLog, logAccount: b.accountID, logSyncCollection: syncCollection, logBytes: payload, logVanishedPath: path,
	})
	return b
}

// AddCommitPoint closes the current group of operations: everything
// added so far becomes one atomic storage.Write, replicated and
// retried independently of any group added before or after it.
func (b *Batch) AddCommitPoint() *Batch {
	if len(b.pending) > 0 {
		b.groups = append(b.groups, b.pending)
		b.pending = nil
	}
	return b
}

// commitPoints returns every closed group plus any trailing operations
// not yet terminated by AddCommitPoint.
func (b *Batch) commitPoints() [][]step {
	b.AddCommitPoint()
	return b.groups
}

func changeCounterName(account uint32, syncCollection uint8) string {
	return fmt.Sprintf("changelog:%d:%d", account, syncCollection)
}

// AssignedIds accumulates counter values produced by the commit points
// of a Batch that have already been applied, so later commit points
// (and retries of the current one) can reference them. A Log step's
// change id is just the post-increment value of its (account,
// syncCollection) change counter, so ChangeID is sugar over Counter.
type AssignedIds struct {
	counters map[string]int64
}

func newAssignedIds() *AssignedIds {
	return &AssignedIds{counters: make(map[string]int64)}
}

// Counter returns the value last recorded under name by an AddAndGet
// step, if any.
func (a *AssignedIds) Counter(name string) (int64, bool) {
	v, ok := a.counters[name]
	return v, ok
}

// ChangeID returns the change id assigned to the most recent Log call
// for (account, syncCollection) in this Batch, if any.
func (a *AssignedIds) ChangeID(account uint32, syncCollection uint8) (uint64, bool) {
	v, ok := a.counters[changeCounterName(account, syncCollection)]
	return uint64(v), ok
}

func (a *AssignedIds) merge(result *storage.WriteResult, resultNames map[string]string) {
	if result == nil {
		return
	}
	for key, value := range result.CounterValues {
		if name, ok := resultNames[key]; ok {
			a.counters[name] = value
		}
		a.counters[key] = value
	}
}
