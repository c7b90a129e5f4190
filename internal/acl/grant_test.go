package acl

import (
	"testing"

	"github.com/cuemby/storectl/internal/batch"
	"github.com/cuemby/storectl/internal/keys"
)

func TestGrant_AndRevoke_AddressSameKey(t *testing.T) {
	grant := Grant(batch.New(), 9, 5, 2, 100, RightRead)
	revoke := Revoke(batch.New(), 9, 5, 2, 100)
	if grant == nil || revoke == nil {
		t.Fatal("Grant()/Revoke() returned nil")
	}

	want := keys.ACLKey(9, 5, 2, 100)
	got := keys.ACLKey(9, 5, 2, 100)
	if string(got) != string(want) {
		t.Fatal("ACLKey() not stable across calls")
	}
}
