package archive

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/cuemby/storectl/internal/storage"
	"github.com/cuemby/storectl/pkg/trace"
)

// Kind discriminates the three archive encodings.
type Kind byte

const (
	Unversioned Kind = iota
	Hashed
	Versioned
)

// headerLen returns the number of header bytes that follow the
// discriminator for kind: Hashed carries a 4-byte hash, Versioned
// carries that plus an 8-byte change id.
func (k Kind) headerLen() int {
	switch k {
	case Hashed:
		return 4
	case Versioned:
		return 12
	default:
		return 0
	}
}

// Archive is an immutable serialized snapshot of a T. The zero value
// is not usable; construct one with New, NewHashed, or NewVersioned.
type Archive[T any] struct {
	kind     Kind
	hash     uint32
	changeID uint64
	body     T
}

// New wraps body with no hash or change id.
func New[T any](body T) *Archive[T] {
	return &Archive[T]{kind: Unversioned, body: body}
}

// NewHashed wraps body and computes its content hash.
func NewHashed[T any](body T) (*Archive[T], error) {
	hash, err := contentHash(body)
	if err != nil {
		return nil, err
	}
	return &Archive[T]{kind: Hashed, hash: hash, body: body}, nil
}

// NewVersioned wraps body, computes its content hash, and attaches
// changeID. changeID is ordinarily the value internal/batch's
// AssignedIds.ChangeID returned for the commit point that wrote it.
func NewVersioned[T any](body T, changeID uint64) (*Archive[T], error) {
	hash, err := contentHash(body)
	if err != nil {
		return nil, err
	}
	return &Archive[T]{kind: Versioned, hash: hash, changeID: changeID, body: body}, nil
}

// Kind reports the archive's discriminant.
func (a *Archive[T]) Kind() Kind { return a.kind }

// Hash returns the 32-bit content hash. Zero for Unversioned archives.
func (a *Archive[T]) Hash() uint32 { return a.hash }

// ChangeID returns the change id stamped on a Versioned archive. Zero
// for other kinds.
func (a *Archive[T]) ChangeID() uint64 { return a.changeID }

// ETag renders the content hash the way HTTP/DAV callers expect it:
// eight lowercase hex digits. Unversioned archives have no hash to
// report and ETag returns the empty string.
func (a *Archive[T]) ETag() string {
	if a.kind == Unversioned {
		return ""
	}
	return fmt.Sprintf("%08x", a.hash)
}

// Unarchive returns the deserialized body. Since T is already the
// decoded value (not a zero-copy view over the wire bytes), this is a
// plain accessor rather than a decode step.
func (a *Archive[T]) Unarchive() T { return a.body }

// WithChanges returns a new archive of the same kind wrapping newBody,
// with a freshly computed hash and, for Versioned archives, changeID
// in place of the original. The engine's update flow asserts the
// current archive's hash (via internal/batch.AssertValue) and writes
// this one's encoded bytes in the same commit point.
func (a *Archive[T]) WithChanges(newBody T, changeID uint64) (*Archive[T], error) {
	switch a.kind {
	case Unversioned:
		return New(newBody), nil
	case Hashed:
		return NewHashed(newBody)
	default:
		return NewVersioned(newBody, changeID)
	}
}

// Marshal encodes the archive to its on-disk representation:
// discriminator byte, fixed-width header, encoding/json body.
func (a *Archive[T]) Marshal() ([]byte, error) {
	body, err := json.Marshal(a.body)
	if err != nil {
		return nil, trace.WrapErr(trace.Decode, "marshal archive body", err)
	}

	buf := make([]byte, 1+a.kind.headerLen()+len(body))
	buf[0] = byte(a.kind)
	switch a.kind {
	case Hashed:
		binary.BigEndian.PutUint32(buf[1:5], a.hash)
	case Versioned:
		binary.BigEndian.PutUint32(buf[1:5], a.hash)
		binary.BigEndian.PutUint64(buf[5:13], a.changeID)
	}
	copy(buf[1+a.kind.headerLen():], body)
	return buf, nil
}

// Unmarshal decodes data produced by Marshal into a fresh Archive[T],
// verifying the content hash for Hashed and Versioned archives.
func Unmarshal[T any](data []byte) (*Archive[T], error) {
	if len(data) < 1 {
		return nil, trace.Wrap(trace.Decode, "archive: empty value")
	}

	kind := Kind(data[0])
	headerLen := kind.headerLen()
	if len(data) < 1+headerLen {
		return nil, trace.Wrap(trace.Decode, "archive: truncated header for kind %d", kind)
	}

	a := &Archive[T]{kind: kind}
	switch kind {
	case Hashed:
		a.hash = binary.BigEndian.Uint32(data[1:5])
	case Versioned:
		a.hash = binary.BigEndian.Uint32(data[1:5])
		a.changeID = binary.BigEndian.Uint64(data[5:13])
	case Unversioned:
	default:
		return nil, trace.Wrap(trace.DataCorruption, "archive: unknown discriminator %d", kind)
	}

	body := data[1+headerLen:]
	if err := json.Unmarshal(body, &a.body); err != nil {
		return nil, trace.WrapErr(trace.Decode, "unmarshal archive body", err)
	}

	if kind == Hashed || kind == Versioned {
		if got := storage.Hash32(body); got != a.hash {
			return nil, trace.Wrap(trace.DataCorruption, "archive hash mismatch: stored %08x, computed %08x", a.hash, got)
		}
	}

	return a, nil
}

// contentHash json-marshals body and returns its 32-bit content hash,
// the same Hash32 internal/storage uses for AssertHash preconditions.
func contentHash(body any) (uint32, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return 0, trace.WrapErr(trace.Decode, "hash archive body", err)
	}
	return storage.Hash32(encoded), nil
}
