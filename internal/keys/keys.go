package keys

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/cuemby/storectl/pkg/trace"
)

// Subspace is the leading discriminator byte of every persisted key.
// It partitions the flat keyspace into the semantic classes described
// in the data model: iterating [Subspace, Subspace+1) enumerates
// exactly the rows belonging to that class.
type Subspace byte

const (
	Property Subspace = iota + 1
	Index
	IndexProperty
	ACL
	ChangeLog
	Vanished
	BlobCommit
	BlobLink
	BlobQuota
	TaskQueue
	InMemory
	Directory
	SearchIndex
	Counter
	Config
)

// boundedTextLen is the longest variable-length text component stored
// inline before the builder falls back to hashing it.
const boundedTextLen = 32

const (
	textTagInline = 0
	textTagHashed = 1
)

// Builder accumulates typed key components and emits a single
// lexicographically ordered byte string. The zero value is not usable;
// start from New.
type Builder struct {
	buf []byte
	err error
}

// New starts a key in the given subspace.
func New(sub Subspace) *Builder {
	return &Builder{buf: []byte{byte(sub)}}
}

// Subspace returns the discriminator byte this key is built under.
func (b *Builder) Subspace() Subspace {
	if len(b.buf) == 0 {
		return 0
	}
	return Subspace(b.buf[0])
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// AccountID appends a big-endian 32-bit account component.
func (b *Builder) AccountID(id uint32) *Builder {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], id)
	b.buf = append(b.buf, tmp[:]...)
	return b
}

// Collection appends a single-byte collection component.
func (b *Builder) Collection(c uint8) *Builder {
	b.buf = append(b.buf, c)
	return b
}

// DocumentID appends a big-endian 32-bit document component.
func (b *Builder) DocumentID(id uint32) *Builder {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], id)
	b.buf = append(b.buf, tmp[:]...)
	return b
}

// FieldID appends a single-byte field/property component.
func (b *Builder) FieldID(id uint8) *Builder {
	b.buf = append(b.buf, id)
	return b
}

// ChangeID appends a big-endian 64-bit change-id component.
func (b *Builder) ChangeID(id uint64) *Builder {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], id)
	b.buf = append(b.buf, tmp[:]...)
	return b
}

// Uint64 appends an arbitrary big-endian 64-bit component, used for
// due-epochs, counters and content hashes.
func (b *Builder) Uint64(v uint64) *Builder {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
	return b
}

// Uint16 appends an arbitrary big-endian 16-bit component.
func (b *Builder) Uint16(v uint16) *Builder {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
	return b
}

// Byte appends a single opaque byte, e.g. a link-class or discriminant tag.
func (b *Builder) Byte(v byte) *Builder {
	b.buf = append(b.buf, v)
	return b
}

// Bytes appends a length-prefixed opaque byte string, usable as a
// non-terminal component. The length prefix is a 16-bit unsigned
// integer; a longer input fails deterministically with Decode.
func (b *Builder) Bytes(raw []byte) *Builder {
	if b.err != nil {
		return b
	}
	if len(raw) > 0xFFFF {
		return b.fail(trace.Wrap(trace.Decode, "key component of %d bytes exceeds 65535-byte bound", len(raw)))
	}
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], uint16(len(raw)))
	b.buf = append(b.buf, tmp[:]...)
	b.buf = append(b.buf, raw...)
	return b
}

// Tail appends a raw byte string with no length prefix. Callers must
// only use Tail for the final component of a key, since nothing after
// it could be told apart from its bytes.
func (b *Builder) Tail(raw []byte) *Builder {
	b.buf = append(b.buf, raw...)
	return b
}

// HashedText appends a variable-length text component, inlining it
// when short and otherwise replacing it with a stable 64-bit hash plus
// a one-byte collision counter supplied by the caller. The counter is
// written as given: the storage engines do not detect hash collisions
// and never change it.
func (b *Builder) HashedText(s string, collision uint8) *Builder {
	data := []byte(s)
	if len(data) <= boundedTextLen {
		b.buf = append(b.buf, textTagInline)
		return b.Bytes(data)
	}
	b.buf = append(b.buf, textTagHashed)
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], xxhash.Sum64(data))
	b.buf = append(b.buf, tmp[:]...)
	b.buf = append(b.buf, collision)
	return b
}

// Build returns the accumulated key, or the first encoding error
// encountered.
func (b *Builder) Build() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.buf, nil
}

// MustBuild returns the accumulated key and panics on an encoding
// error. Callers use it when the key's components are known-good
// constants (e.g. a fixed subspace-range probe).
func (b *Builder) MustBuild() []byte {
	key, err := b.Build()
	if err != nil {
		panic(err)
	}
	return key
}

// SubspaceRange returns the [lo, hi) bounds that enumerate exactly the
// rows of one subspace.
func SubspaceRange(sub Subspace) (lo, hi []byte) {
	return []byte{byte(sub)}, []byte{byte(sub) + 1}
}

// PrefixRange returns the [lo, hi) bounds that enumerate every key
// sharing the given prefix.
func PrefixRange(prefix []byte) (lo, hi []byte) {
	lo = append([]byte(nil), prefix...)
	hi = append([]byte(nil), prefix...)
	for i := len(hi) - 1; i >= 0; i-- {
		if hi[i] < 0xFF {
			hi[i]++
			return lo, hi[:i+1]
		}
	}
	// prefix is all 0xFF: there is no finite successor, so the range
	// is unbounded above.
	return lo, nil
}

// decodeUint32 extracts a big-endian 32-bit field at offset, failing
// with DataCorruption when the segment does not fit.
func decodeUint32(key []byte, offset int) (uint32, error) {
	if offset < 0 || offset+4 > len(key) {
		return 0, trace.Wrap(trace.DataCorruption, "key too short for uint32 field at offset %d", offset)
	}
	return binary.BigEndian.Uint32(key[offset : offset+4]), nil
}

func decodeUint64(key []byte, offset int) (uint64, error) {
	if offset < 0 || offset+8 > len(key) {
		return 0, trace.Wrap(trace.DataCorruption, "key too short for uint64 field at offset %d", offset)
	}
	return binary.BigEndian.Uint64(key[offset : offset+8]), nil
}

func decodeByte(key []byte, offset int) (byte, error) {
	if offset < 0 || offset >= len(key) {
		return 0, trace.Wrap(trace.DataCorruption, "key too short for byte field at offset %d", offset)
	}
	return key[offset], nil
}
