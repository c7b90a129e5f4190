package acl

import (
	"context"

	"github.com/cuemby/storectl/internal/accesstoken"
	"github.com/cuemby/storectl/internal/keys"
	"github.com/cuemby/storectl/internal/storage"
)

// Evaluate reports whether token's principal holds every bit of
// required over (grantorAccount, collection), for the container whose
// own document id is containerDocument. The owner and every member
// (token.Memberships) implicitly hold every right; any other grantee
// must have an explicit Grant row at containerDocument whose bitmap
// covers required, per spec.md §4.12's container-then-inherit rule.
func Evaluate(ctx context.Context, store storage.Engine, token *accesstoken.AccessToken, grantorAccount uint32, collection uint8, containerDocument uint32, required Rights) (bool, error) {
	if !token.HasAccess(grantorAccount, collection) {
		return false, nil
	}
	if isOwnerOrMember(token, grantorAccount) {
		return true, nil
	}

	rights, ok, err := Lookup(ctx, store, token.PrincipalID, grantorAccount, collection, containerDocument)
	if err != nil {
		return false, err
	}
	return ok && rights.Has(required), nil
}

// Lookup reads the rights bitmap a grantor stored for one grantee over
// (collection, document) directly, with no fallback: item-level
// inheritance is Evaluate's concern, not Lookup's.
func Lookup(ctx context.Context, store storage.Engine, granteeAccount, grantorAccount uint32, collection uint8, document uint32) (Rights, bool, error) {
	key := keys.ACLKey(granteeAccount, grantorAccount, collection, document)
	value, err := store.Get(ctx, key)
	if err != nil {
		return 0, false, err
	}
	if value == nil {
		return 0, false, nil
	}
	return DecodeRights(value), true, nil
}

func isOwnerOrMember(token *accesstoken.AccessToken, grantorAccount uint32) bool {
	for _, m := range token.Memberships {
		if m == grantorAccount {
			return true
		}
	}
	return false
}
