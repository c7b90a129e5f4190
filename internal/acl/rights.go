package acl

import "encoding/binary"

// Rights is the bitmap spec.md §3's ACL subspace stores as a row's
// value. Bit assignments beyond Read/Write/Admin are a protocol-layer
// concern (e.g. a CalDAV-specific "respond to invite" bit); this
// package only ever ANDs masks, never names more than the three every
// collection type needs.
type Rights uint32

const (
	RightRead Rights = 1 << iota
	RightWrite
	RightAdmin
)

// Has reports whether r contains every bit set in required.
func (r Rights) Has(required Rights) bool {
	return r&required == required
}

// EncodeRights renders r as the 4-byte big-endian value an ACL row
// stores.
func EncodeRights(r Rights) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(r))
	return buf
}

// DecodeRights is EncodeRights's inverse. An empty slice decodes to
// zero rights rather than an error, since a caller that already
// checked presence via Lookup's ok return need not special-case it.
func DecodeRights(data []byte) Rights {
	if len(data) != 4 {
		return 0
	}
	return Rights(binary.BigEndian.Uint32(data))
}
