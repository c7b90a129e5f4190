package directory

import (
	"context"

	"github.com/cuemby/storectl/internal/batch"
	"github.com/cuemby/storectl/internal/keys"
	"github.com/cuemby/storectl/internal/storage"
)

// AddMember records principal as belonging to group, writing both
// halves of the edge (keys.DirectoryMemberOfKey and
// keys.DirectoryMembersKey) in the same batch, per spec.md §3's
// "both MemberOf and Members sides are written in the same batch."
func AddMember(b *batch.Batch, group, principal uint32) *batch.Batch {
	b.PutRaw(keys.DirectoryMemberOfKey(principal, group), nil)
	return b.PutRaw(keys.DirectoryMembersKey(group, principal), nil)
}

// RemoveMember clears both halves of the edge AddMember wrote.
func RemoveMember(b *batch.Batch, group, principal uint32) *batch.Batch {
	b.ClearRaw(keys.DirectoryMemberOfKey(principal, group))
	return b.ClearRaw(keys.DirectoryMembersKey(group, principal))
}

// Members returns every principal directly belonging to group: the
// inverse of internal/accesstoken/build.go's loadMemberships walk.
func Members(ctx context.Context, store storage.Engine, group uint32) ([]uint32, error) {
	lo, hi := keys.DirectoryMembersRange(group)
	it, err := store.Iterate(ctx, lo, hi, false, false)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var members []uint32
	for it.Next() {
		principal, err := keys.DecodeDirectoryMembersPrincipal(it.Key())
		if err != nil {
			return nil, err
		}
		members = append(members, principal)
	}
	return members, it.Err()
}

// TransitiveMembers walks Members recursively from root, following a
// member that is itself a group, and returns every principal reached
// (root included). A visited set guards against a membership cycle.
func TransitiveMembers(ctx context.Context, store storage.Engine, root uint32) ([]uint32, error) {
	visited := map[uint32]bool{root: true}
	queue := []uint32{root}
	result := []uint32{root}

	for len(queue) > 0 {
		group := queue[0]
		queue = queue[1:]

		members, err := Members(ctx, store, group)
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			if visited[m] {
				continue
			}
			visited[m] = true
			result = append(result, m)
			queue = append(queue, m)
		}
	}
	return result, nil
}
