package accesstoken

import (
	"context"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/cuemby/storectl/internal/keys"
	"github.com/cuemby/storectl/internal/storage"
)

// Build assembles an AccessToken for principal directly from storage,
// per spec.md §4.8: walk the directory subspace for memberships, then
// walk every ACL row granted to principal to fill the shared-access
// map. Permission-bitmap resolution (roles to permissions, tenant
// intersection, email expansion) is the caller's domain logic; Build
// handles only the storage walk this package owns — memberships and
// shared access — and lets the caller supply the already-resolved
// permission bitmap.
func Build(ctx context.Context, store storage.Engine, principal uint32, permissions uint64, newRevision func() uint64) (*AccessToken, error) {
	memberships, err := loadMemberships(ctx, store, principal)
	if err != nil {
		return nil, err
	}

	sharedAccess, err := loadSharedAccess(ctx, store, principal)
	if err != nil {
		return nil, err
	}

	return &AccessToken{
		PrincipalID:  principal,
		Memberships:  memberships,
		SharedAccess: sharedAccess,
		Permissions:  permissions,
		Revision:     newRevision(),
	}, nil
}

func loadMemberships(ctx context.Context, store storage.Engine, principal uint32) ([]uint32, error) {
	lo, hi := keys.DirectoryMemberOfRange(principal)
	it, err := store.Iterate(ctx, lo, hi, false, false)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	memberships := []uint32{principal}
	for it.Next() {
		group, err := keys.DecodeDirectoryMemberOfGroup(it.Key())
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, group)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return memberships, nil
}

func loadSharedAccess(ctx context.Context, store storage.Engine, principal uint32) (map[uint32]*roaring.Bitmap, error) {
	lo, hi := keys.ACLGranteeRange(principal)
	it, err := store.Iterate(ctx, lo, hi, false, false)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	shared := make(map[uint32]*roaring.Bitmap)
	for it.Next() {
		grantor, collection, _, err := keys.DecodeACLKey(it.Key())
		if err != nil {
			return nil, err
		}
		bm, ok := shared[grantor]
		if !ok {
			bm = roaring.New()
			shared[grantor] = bm
		}
		bm.Add(uint32(collection))
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return shared, nil
}
