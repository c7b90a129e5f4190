package archive

import (
	"testing"
)

type calendarContainer struct {
	Name  string
	Color string
}

func TestArchive_UnversionedRoundTrip(t *testing.T) {
	a := New(calendarContainer{Name: "Work", Color: "blue"})
	if a.ETag() != "" {
		t.Errorf("ETag() = %q, want empty string for Unversioned", a.ETag())
	}

	data, err := a.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	got, err := Unmarshal[calendarContainer](data)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got.Unarchive() != a.Unarchive() {
		t.Errorf("Unarchive() = %+v, want %+v", got.Unarchive(), a.Unarchive())
	}
}

func TestArchive_HashedETagIsEightHexDigits(t *testing.T) {
	a, err := NewHashed(calendarContainer{Name: "Work"})
	if err != nil {
		t.Fatalf("NewHashed() error = %v", err)
	}
	if len(a.ETag()) != 8 {
		t.Errorf("ETag() = %q, want 8 hex digits", a.ETag())
	}
}

func TestArchive_VersionedRoundTripPreservesChangeID(t *testing.T) {
	a, err := NewVersioned(calendarContainer{Name: "Work"}, 101)
	if err != nil {
		t.Fatalf("NewVersioned() error = %v", err)
	}

	data, err := a.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	got, err := Unmarshal[calendarContainer](data)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got.ChangeID() != 101 {
		t.Errorf("ChangeID() = %d, want 101", got.ChangeID())
	}
	if got.Hash() != a.Hash() {
		t.Errorf("Hash() = %08x, want %08x", got.Hash(), a.Hash())
	}
}

func TestArchive_UnmarshalRejectsCorruptedBytes(t *testing.T) {
	a, err := NewHashed(calendarContainer{Name: "Work"})
	if err != nil {
		t.Fatalf("NewHashed() error = %v", err)
	}
	data, err := a.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	data[len(data)-1] ^= 0xFF // flip a body byte without touching the hash header

	if _, err := Unmarshal[calendarContainer](data); err == nil {
		t.Error("Unmarshal() with a corrupted body should fail hash verification")
	}
}

func TestArchive_WithChangesBumpsHashAndChangeID(t *testing.T) {
	a, err := NewVersioned(calendarContainer{Name: "Work"}, 100)
	if err != nil {
		t.Fatalf("NewVersioned() error = %v", err)
	}

	next, err := a.WithChanges(calendarContainer{Name: "Personal"}, 101)
	if err != nil {
		t.Fatalf("WithChanges() error = %v", err)
	}
	if next.Hash() == a.Hash() {
		t.Error("WithChanges() should change the hash when the body changes")
	}
	if next.ChangeID() != 101 {
		t.Errorf("ChangeID() = %d, want 101", next.ChangeID())
	}
}
