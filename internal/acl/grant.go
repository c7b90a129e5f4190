package acl

import (
	"github.com/cuemby/storectl/internal/batch"
	"github.com/cuemby/storectl/internal/keys"
)

// Grant writes or replaces the rights bitmap granteeAccount holds over
// (grantorAccount, collection, document). document is the container's
// own document id for a container-level grant; item-level rights are
// never stored directly, only inherited (see Evaluate).
func Grant(b *batch.Batch, granteeAccount, grantorAccount uint32, collection uint8, document uint32, rights Rights) *batch.Batch {
	key := keys.ACLKey(granteeAccount, grantorAccount, collection, document)
	return b.PutRaw(key, EncodeRights(rights))
}

// Revoke clears a grant entirely.
func Revoke(b *batch.Batch, granteeAccount, grantorAccount uint32, collection uint8, document uint32) *batch.Batch {
	return b.ClearRaw(keys.ACLKey(granteeAccount, grantorAccount, collection, document))
}
