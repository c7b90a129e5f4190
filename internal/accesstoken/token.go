package accesstoken

import (
	"encoding/binary"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/cuemby/storectl/internal/storage"
)

// AccessToken is the derived, cache-only snapshot spec.md §3 describes:
// a principal's memberships, the accounts/collections shared into it,
// its expanded permission bitmap, and a revision stamp clients use to
// detect staleness after an invalidation.
type AccessToken struct {
	PrincipalID uint32
	Memberships []uint32 // account/group/tenant ids this principal belongs to

	// SharedAccess maps a grantor account to the bitmap of collections
	// shared into PrincipalID on that account.
	SharedAccess map[uint32]*roaring.Bitmap

	// Permissions is the union of role permissions minus denials,
	// already intersected against tenant-level limits.
	Permissions uint64

	// Revision is a random 64-bit stamp assigned at build time, unique
	// per build so two tokens built from identical inputs still differ.
	Revision uint64
}

// State returns the 32-bit hash of memberships and shared access spec.md
// §4.8 calls for: clients compare it across fetches to detect a
// shared-view change without comparing the full token.
func (t *AccessToken) State() uint32 {
	var buf []byte

	memberships := append([]uint32(nil), t.Memberships...)
	sort.Slice(memberships, func(i, j int) bool { return memberships[i] < memberships[j] })
	for _, m := range memberships {
		buf = appendUint32(buf, m)
	}

	grantors := make([]uint32, 0, len(t.SharedAccess))
	for grantor := range t.SharedAccess {
		grantors = append(grantors, grantor)
	}
	sort.Slice(grantors, func(i, j int) bool { return grantors[i] < grantors[j] })
	for _, grantor := range grantors {
		buf = appendUint32(buf, grantor)
		bm := t.SharedAccess[grantor]
		if bm == nil {
			continue
		}
		collections := bm.ToArray()
		for _, c := range collections {
			buf = appendUint32(buf, c)
		}
	}

	return storage.Hash32(buf)
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

// HasAccess reports whether the token grants access to collection on
// grantorAccount, either because PrincipalID owns that account outright
// (a membership) or because it appears in the shared-access map.
func (t *AccessToken) HasAccess(grantorAccount uint32, collection uint8) bool {
	for _, m := range t.Memberships {
		if m == grantorAccount {
			return true
		}
	}
	bm, ok := t.SharedAccess[grantorAccount]
	return ok && bm.Contains(uint32(collection))
}
