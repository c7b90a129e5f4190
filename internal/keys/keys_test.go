package keys

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cuemby/storectl/pkg/trace"
)

func TestBuilder_SubspaceIsLeadingByte(t *testing.T) {
	key := New(Property).AccountID(1).Collection(2).DocumentID(3).FieldID(4).MustBuild()

	if key[0] != byte(Property) {
		t.Fatalf("leading byte = %d, want %d", key[0], byte(Property))
	}
}

func TestBuilder_OrderingMatchesValueOrdering(t *testing.T) {
	a := New(Property).AccountID(1).Collection(0).DocumentID(5).FieldID(0).MustBuild()
	b := New(Property).AccountID(1).Collection(0).DocumentID(6).FieldID(0).MustBuild()

	if bytes.Compare(a, b) >= 0 {
		t.Errorf("key(doc=5) should sort before key(doc=6)")
	}
}

func TestSubspaceRange_EnumeratesOnlyThatClass(t *testing.T) {
	lo, hi := SubspaceRange(Property)

	propKey := New(Property).AccountID(1).MustBuild()
	indexKey := New(Index).AccountID(1).MustBuild()

	if bytes.Compare(propKey, lo) < 0 || bytes.Compare(propKey, hi) >= 0 {
		t.Error("property key should fall within the Property subspace range")
	}

	if bytes.Compare(indexKey, lo) >= 0 && bytes.Compare(indexKey, hi) < 0 {
		t.Error("index key should not fall within the Property subspace range")
	}
}

func TestPrefixRange_EnumeratesSharedPrefix(t *testing.T) {
	prefix := New(Property).AccountID(42).MustBuild()
	lo, hi := PrefixRange(prefix)

	inRange := New(Property).AccountID(42).Collection(1).DocumentID(7).FieldID(0).MustBuild()
	outOfRange := New(Property).AccountID(43).MustBuild()

	if bytes.Compare(inRange, lo) < 0 || bytes.Compare(inRange, hi) >= 0 {
		t.Error("key sharing the prefix should fall within [lo, hi)")
	}

	if bytes.Compare(outOfRange, lo) >= 0 && bytes.Compare(outOfRange, hi) < 0 {
		t.Error("key not sharing the prefix should not fall within [lo, hi)")
	}
}

func TestPrefixRange_AllFF(t *testing.T) {
	lo, hi := PrefixRange([]byte{0xFF, 0xFF})

	if hi != nil {
		t.Errorf("PrefixRange of all-0xFF prefix should have no upper bound, got %v", hi)
	}
	if !bytes.Equal(lo, []byte{0xFF, 0xFF}) {
		t.Errorf("lo = %v, want unchanged prefix", lo)
	}
}

func TestBuilder_BytesTooLongFailsDecode(t *testing.T) {
	huge := make([]byte, 0x10000)
	_, err := New(Index).AccountID(1).Bytes(huge).Build()

	if !trace.Is(err, trace.Decode) {
		t.Fatalf("Build() error = %v, want trace.Decode", err)
	}
}

func TestBuilder_MustBuildPanicsOnError(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustBuild() did not panic on encoding error")
		}
	}()

	huge := make([]byte, 0x10000)
	New(Index).Bytes(huge).MustBuild()
}

func TestHashedText_InlineForShortText(t *testing.T) {
	key := New(InMemory).HashedText("short", 0).MustBuild()

	if !bytes.Contains(key, []byte("short")) {
		t.Error("short text should be stored inline, not hashed")
	}
}

func TestHashedText_HashedForLongText(t *testing.T) {
	long := strings.Repeat("x", boundedTextLen+1)
	key := New(InMemory).HashedText(long, 3).MustBuild()

	if bytes.Contains(key, []byte(long)) {
		t.Error("long text should not appear inline in the key")
	}

	// tag byte + 8 hash bytes + 1 collision byte appended after the subspace byte
	wantTailLen := 1 + 8 + 1
	if len(key) < wantTailLen {
		t.Fatalf("key too short for a hashed component: %d bytes", len(key))
	}
	if key[len(key)-1] != 3 {
		t.Errorf("collision suffix = %d, want 3", key[len(key)-1])
	}
}

func TestChangeLogSinceRange_ExcludesSeenEntries(t *testing.T) {
	seen := ChangeLogKey(1, 0, 10)
	lo, hi := ChangeLogSinceRange(1, 0, 10)

	if bytes.Compare(seen, lo) >= 0 {
		t.Error("since range should exclude the already-seen change id")
	}

	next := ChangeLogKey(1, 0, 11)
	if bytes.Compare(next, lo) < 0 || (hi != nil && bytes.Compare(next, hi) >= 0) {
		t.Error("since range should include the next change id")
	}
}

func TestIndexKey_DocumentIDIsTrailingFourBytes(t *testing.T) {
	key := IndexKey(1, 2, 3, []byte("value"), 0xAABBCCDD)

	tail := key[len(key)-4:]
	want := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	if !bytes.Equal(tail, want) {
		t.Errorf("trailing document id bytes = %v, want %v", tail, want)
	}
}

func TestDirectoryEdgesAreDistinct(t *testing.T) {
	memberOf := DirectoryMemberOfKey(1, 2)
	members := DirectoryMembersKey(2, 1)

	if bytes.Equal(memberOf, members) {
		t.Error("MemberOf and Members edges must not collide even for the same pair")
	}
}

func TestDecodeBlobCommitKey_RoundTrips(t *testing.T) {
	key := BlobCommitKey(0xDEADBEEFCAFE)

	hash, err := DecodeBlobCommitKey(key)
	if err != nil {
		t.Fatalf("DecodeBlobCommitKey() error = %v", err)
	}
	if hash != 0xDEADBEEFCAFE {
		t.Errorf("hash = %x, want %x", hash, 0xDEADBEEFCAFE)
	}
}

func TestDecodeBlobLinkHash_RoundTrips(t *testing.T) {
	key := BlobLinkDocumentKey(0x1122334455, 1, 2, 3)

	hash, err := DecodeBlobLinkHash(key)
	if err != nil {
		t.Fatalf("DecodeBlobLinkHash() error = %v", err)
	}
	if hash != 0x1122334455 {
		t.Errorf("hash = %x, want %x", hash, 0x1122334455)
	}
}
