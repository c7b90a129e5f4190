package acl

import (
	"context"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/cuemby/storectl/internal/accesstoken"
	"github.com/cuemby/storectl/internal/keys"
	"github.com/cuemby/storectl/internal/storage"
)

func seedGrant(t *testing.T, store storage.Engine, grantee, grantor uint32, collection uint8, document uint32, rights Rights) {
	t.Helper()
	wb := storage.NewWriteBatch().Put(keys.ACLKey(grantee, grantor, collection, document), EncodeRights(rights))
	if _, err := store.Write(context.Background(), wb); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
}

func TestLookup_RoundTripsGrantedRights(t *testing.T) {
	store := storage.NewMemEngine()
	seedGrant(t, store, 9, 5, 2, 100, RightRead|RightWrite)

	rights, ok, err := Lookup(context.Background(), store, 9, 5, 2, 100)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if !ok {
		t.Fatal("Lookup() ok = false, want true")
	}
	if !rights.Has(RightRead | RightWrite) {
		t.Fatalf("Lookup() rights = %v, want Read|Write", rights)
	}
}

func TestLookup_AbsentRowReturnsNotFound(t *testing.T) {
	store := storage.NewMemEngine()
	_, ok, err := Lookup(context.Background(), store, 9, 5, 2, 100)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if ok {
		t.Fatal("Lookup() ok = true for an absent row, want false")
	}
}

func TestEvaluate_OwnerAlwaysHasEveryRight(t *testing.T) {
	store := storage.NewMemEngine()
	token := &accesstoken.AccessToken{PrincipalID: 5, Memberships: []uint32{5}}

	ok, err := Evaluate(context.Background(), store, token, 5, 2, 100, RightAdmin)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !ok {
		t.Fatal("owner Evaluate() = false, want true")
	}
}

func TestEvaluate_MemberHasEveryRight(t *testing.T) {
	store := storage.NewMemEngine()
	token := &accesstoken.AccessToken{PrincipalID: 9, Memberships: []uint32{9, 5}}

	ok, err := Evaluate(context.Background(), store, token, 5, 2, 100, RightAdmin)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !ok {
		t.Fatal("member Evaluate() = false, want true")
	}
}

func TestEvaluate_SharedPrincipalLimitedToGrantedRights(t *testing.T) {
	store := storage.NewMemEngine()
	seedGrant(t, store, 9, 5, 2, 100, RightRead)

	sharedAccess := map[uint32]*roaring.Bitmap{5: roaring.BitmapOf(2)}
	token := &accesstoken.AccessToken{PrincipalID: 9, Memberships: []uint32{9}, SharedAccess: sharedAccess}

	ok, err := Evaluate(context.Background(), store, token, 5, 2, 100, RightRead)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !ok {
		t.Fatal("Evaluate() for a granted right = false, want true")
	}

	ok, err = Evaluate(context.Background(), store, token, 5, 2, 100, RightWrite)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if ok {
		t.Fatal("Evaluate() for an ungranted right = true, want false")
	}
}

func TestEvaluate_NoSharedAccessDenied(t *testing.T) {
	store := storage.NewMemEngine()
	token := &accesstoken.AccessToken{PrincipalID: 9, Memberships: []uint32{9}}

	ok, err := Evaluate(context.Background(), store, token, 5, 2, 100, RightRead)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if ok {
		t.Fatal("Evaluate() with no shared access = true, want false")
	}
}
