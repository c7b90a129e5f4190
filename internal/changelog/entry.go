package changelog

import (
	"encoding/binary"

	"github.com/cuemby/storectl/pkg/trace"
)

// EntryKind distinguishes container and item mutations, and whether
// the mutation is an insert, update, or delete.
type EntryKind uint8

const (
	InsertItem EntryKind = iota
	UpdateItem
	DeleteItem
	InsertContainer
	UpdateContainer
	DeleteContainer
	UpdateContainerProperty
)

// IsContainer reports whether kind affects a container rather than an
// item within one.
func (k EntryKind) IsContainer() bool {
	switch k {
	case InsertContainer, UpdateContainer, DeleteContainer, UpdateContainerProperty:
		return true
	default:
		return false
	}
}

// Entry is one compact change-log record: the kind of mutation and
// the affected document id.
type Entry struct {
	Kind       EntryKind
	DocumentID uint32
}

const entryLen = 1 + 4 // kind byte + document id

// Encode packs entries into the compact payload a change-log row
// stores. The layout is a 2-byte count followed by fixed-width
// records, favoring cheap sequential reads over the teacher's
// map[string]string Event.Data, since a change-log row is read far
// more often than it is written.
func Encode(entries []Entry) []byte {
	buf := make([]byte, 2+len(entries)*entryLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(len(entries)))
	for i, e := range entries {
		off := 2 + i*entryLen
		buf[off] = byte(e.Kind)
		binary.BigEndian.PutUint32(buf[off+1:off+5], e.DocumentID)
	}
	return buf
}

// Decode unpacks a payload produced by Encode.
func Decode(data []byte) ([]Entry, error) {
	if len(data) < 2 {
		return nil, trace.Wrap(trace.DataCorruption, "change log row too short for count: %d bytes", len(data))
	}
	count := int(binary.BigEndian.Uint16(data[0:2]))
	want := 2 + count*entryLen
	if len(data) != want {
		return nil, trace.Wrap(trace.DataCorruption, "change log row length %d, want %d for %d entries", len(data), want, count)
	}

	entries := make([]Entry, count)
	for i := 0; i < count; i++ {
		off := 2 + i*entryLen
		entries[i] = Entry{
			Kind:       EntryKind(data[off]),
			DocumentID: binary.BigEndian.Uint32(data[off+1 : off+5]),
		}
	}
	return entries, nil
}
