package keys

// PropertyKey addresses one archived property: account, collection,
// document, property-id.
func PropertyKey(account uint32, collection uint8, document uint32, property uint8) []byte {
	return New(Property).
		AccountID(account).Collection(collection).DocumentID(document).FieldID(property).
		MustBuild()
}

// PropertyRange enumerates every property row for one document.
func PropertyRange(account uint32, collection uint8, document uint32) (lo, hi []byte) {
	prefix := New(Property).AccountID(account).Collection(collection).DocumentID(document).MustBuild()
	return PrefixRange(prefix)
}

// IndexKey addresses one membership row in the Index subspace: the
// value bytes are an arbitrary already-encoded field value, so they
// are length-prefixed via Bytes; document terminates the key so a
// reader can always find it as the last four bytes.
func IndexKey(account uint32, collection uint8, field uint8, value []byte, document uint32) []byte {
	return New(Index).
		AccountID(account).Collection(collection).FieldID(field).Bytes(value).DocumentID(document).
		MustBuild()
}

// IndexFieldRange enumerates every membership row for one field.
func IndexFieldRange(account uint32, collection uint8, field uint8) (lo, hi []byte) {
	prefix := New(Index).AccountID(account).Collection(collection).FieldID(field).MustBuild()
	return PrefixRange(prefix)
}

// IndexPropertyKey addresses a row in the IndexProperty subspace,
// whose value component is a fixed-width integer or hash rather than
// arbitrary bytes.
func IndexPropertyKey(account uint32, collection uint8, field uint8, valueOrHash uint64, document uint32) []byte {
	return New(IndexProperty).
		AccountID(account).Collection(collection).FieldID(field).Uint64(valueOrHash).DocumentID(document).
		MustBuild()
}

// ACLKey addresses the rights bitmap a grantor stored for a grantee
// over one (collection, document).
func ACLKey(granteeAccount, grantorAccount uint32, collection uint8, document uint32) []byte {
	return New(ACL).
		AccountID(granteeAccount).AccountID(grantorAccount).Collection(collection).DocumentID(document).
		MustBuild()
}

// ACLGranteeRange enumerates every ACL row written for one grantee
// account, regardless of grantor.
func ACLGranteeRange(granteeAccount uint32) (lo, hi []byte) {
	prefix := New(ACL).AccountID(granteeAccount).MustBuild()
	return PrefixRange(prefix)
}

// DecodeACLKey extracts the (grantorAccount, collection, document)
// components back out of a key produced by ACLKey, for the access
// token builder's walk over one grantee's ACL rows.
func DecodeACLKey(key []byte) (grantorAccount uint32, collection uint8, document uint32, err error) {
	if grantorAccount, err = decodeUint32(key, 5); err != nil {
		return 0, 0, 0, err
	}
	if collection, err = decodeByte(key, 9); err != nil {
		return 0, 0, 0, err
	}
	if document, err = decodeUint32(key, 10); err != nil {
		return 0, 0, 0, err
	}
	return grantorAccount, collection, document, nil
}

// ChangeLogKey addresses one change-log entry.
func ChangeLogKey(account uint32, syncCollection uint8, changeID uint64) []byte {
	return New(ChangeLog).AccountID(account).Collection(syncCollection).ChangeID(changeID).MustBuild()
}

// ChangeLogSinceRange enumerates change-log entries for one
// (account, sync-collection) with change_id > since.
func ChangeLogSinceRange(account uint32, syncCollection uint8, since uint64) (lo, hi []byte) {
	lo = New(ChangeLog).AccountID(account).Collection(syncCollection).ChangeID(since + 1).MustBuild()
	prefix := New(ChangeLog).AccountID(account).Collection(syncCollection).MustBuild()
	_, hi = PrefixRange(prefix)
	return lo, hi
}

// ChangeLogBeforeRange enumerates change-log entries for one
// (account, sync-collection) with change_id < keepChangeID, used by
// the retention trim job to find rows it is safe to drop.
func ChangeLogBeforeRange(account uint32, syncCollection uint8, keepChangeID uint64) (lo, hi []byte) {
	prefix := New(ChangeLog).AccountID(account).Collection(syncCollection).MustBuild()
	lo, _ = PrefixRange(prefix)
	hi = New(ChangeLog).AccountID(account).Collection(syncCollection).ChangeID(keepChangeID).MustBuild()
	return lo, hi
}

// DecodeChangeLogChangeID extracts the change id back out of a key
// produced by ChangeLogKey, for a Changes query walking the
// since-range.
func DecodeChangeLogChangeID(key []byte) (uint64, error) {
	return decodeUint64(key, 6)
}

// VanishedKey addresses a vanished-resource record.
func VanishedKey(account uint32, vanishedCollection uint8, changeID uint64) []byte {
	return New(Vanished).AccountID(account).Collection(vanishedCollection).ChangeID(changeID).MustBuild()
}

// BlobCommitKey addresses the presence row that marks a content hash
// as having durable bytes in the blob backend.
func BlobCommitKey(hash uint64) []byte {
	return New(BlobCommit).Uint64(hash).MustBuild()
}

// DecodeBlobCommitKey extracts the content hash back out of a key
// produced by BlobCommitKey, for the sweep job's subspace scan.
func DecodeBlobCommitKey(key []byte) (uint64, error) {
	return decodeUint64(key, 1)
}

// DecodeBlobLinkHash extracts the content hash out of a key produced
// by BlobLinkDocumentKey or BlobLinkTempKey: both begin with it.
func DecodeBlobLinkHash(key []byte) (uint64, error) {
	return decodeUint64(key, 1)
}

const (
	// BlobLinkKindDocument marks a durable owner link from a document
	// to a blob hash; it carries no expiry.
	BlobLinkKindDocument byte = 0
	// BlobLinkKindTemp marks a transient upload link that the sweeper
	// treats as live only until its encoded expiry passes.
	BlobLinkKindTemp byte = 1

	// blobLinkKindOffset is the kind byte's offset past the subspace
	// byte and the 8-byte hash component shared by every BlobLink key.
	blobLinkKindOffset = 9
	// blobLinkTempExpiresAtOffset is where BlobLinkTempKey places its
	// expiry, past the kind byte and the 4-byte account component.
	blobLinkTempExpiresAtOffset = blobLinkKindOffset + 1 + 4
)

// BlobLinkDocumentKey addresses an owner link from one document to a
// blob hash.
func BlobLinkDocumentKey(hash uint64, account uint32, collection uint8, document uint32) []byte {
	return New(BlobLink).
		Uint64(hash).Byte(BlobLinkKindDocument).AccountID(account).Collection(collection).DocumentID(document).
		MustBuild()
}

// BlobLinkTempKey addresses a temporary link with an absolute
// expiry (seconds since the Unix epoch).
func BlobLinkTempKey(hash uint64, account uint32, expiresAt uint64) []byte {
	return New(BlobLink).Uint64(hash).Byte(BlobLinkKindTemp).AccountID(account).Uint64(expiresAt).MustBuild()
}

// BlobLinkRange enumerates every link row for one hash.
func BlobLinkRange(hash uint64) (lo, hi []byte) {
	prefix := New(BlobLink).Uint64(hash).MustBuild()
	return PrefixRange(prefix)
}

// DecodeBlobLinkKind extracts the link kind (BlobLinkKindDocument or
// BlobLinkKindTemp) from a key produced by BlobLinkDocumentKey or
// BlobLinkTempKey.
func DecodeBlobLinkKind(key []byte) (byte, error) {
	return decodeByte(key, blobLinkKindOffset)
}

// DecodeBlobLinkTempExpiresAt extracts the expiry (seconds since the
// Unix epoch) from a key produced by BlobLinkTempKey. Calling it on a
// BlobLinkDocumentKey yields a meaningless value; check
// DecodeBlobLinkKind first.
func DecodeBlobLinkTempExpiresAt(key []byte) (uint64, error) {
	return decodeUint64(key, blobLinkTempExpiresAtOffset)
}

// BlobQuotaKey addresses a pending-quota row for an account's
// not-yet-committed blob bytes.
func BlobQuotaKey(account uint32, hash uint64) []byte {
	return New(BlobQuota).AccountID(account).Uint64(hash).MustBuild()
}

// TaskQueueKey addresses one queued task. due is the composite
// due-epoch (Unix seconds in the high bits, the attempt count in the
// low 8 bits); kind identifies the task flavor.
func TaskQueueKey(kind uint8, due uint64, account uint32, document uint32) []byte {
	return New(TaskQueue).FieldID(kind).Uint64(due).AccountID(account).DocumentID(document).MustBuild()
}

// TaskQueueDueRange enumerates ready tasks of one kind whose due-epoch
// falls in [lo, hi).
func TaskQueueDueRange(kind uint8, loDue, hiDue uint64) (lo, hi []byte) {
	lo = New(TaskQueue).FieldID(kind).Uint64(loDue).MustBuild()
	hi = New(TaskQueue).FieldID(kind).Uint64(hiDue).MustBuild()
	return lo, hi
}

// DecodeTaskQueueKey extracts the (due, account, document) components
// back out of a key produced by TaskQueueKey; the kind is already
// known from the range a caller iterated.
func DecodeTaskQueueKey(key []byte) (due uint64, account uint32, document uint32, err error) {
	if due, err = decodeUint64(key, 2); err != nil {
		return 0, 0, 0, err
	}
	if account, err = decodeUint32(key, 10); err != nil {
		return 0, 0, 0, err
	}
	if document, err = decodeUint32(key, 14); err != nil {
		return 0, 0, 0, err
	}
	return due, account, document, nil
}

// InMemoryKey addresses a row in the in-memory class (leases, TTL rows,
// small markers). Rows here are not tied to one write path: task-queue
// leases are written straight to the local engine, while the change
// log's retention floor is committed through the batch engine.
func InMemoryKey(name string, collision uint8) []byte {
	return New(InMemory).HashedText(name, collision).MustBuild()
}

const (
	directoryMemberOf byte = 0
	directoryMembers  byte = 1
)

// DirectoryMemberOfKey addresses the principal -> group edge.
func DirectoryMemberOfKey(principal, group uint32) []byte {
	return New(Directory).AccountID(principal).Byte(directoryMemberOf).AccountID(group).MustBuild()
}

// DirectoryMembersKey addresses the group -> principal edge written in
// the same batch as DirectoryMemberOfKey, so membership is always
// symmetric.
func DirectoryMembersKey(group, principal uint32) []byte {
	return New(Directory).AccountID(group).Byte(directoryMembers).AccountID(principal).MustBuild()
}

// DirectoryMemberOfRange enumerates every group a principal belongs
// to, for the access token builder's membership walk.
func DirectoryMemberOfRange(principal uint32) (lo, hi []byte) {
	prefix := New(Directory).AccountID(principal).Byte(directoryMemberOf).MustBuild()
	return PrefixRange(prefix)
}

// DecodeDirectoryMemberOfGroup extracts the group id back out of a
// key produced by DirectoryMemberOfKey.
func DecodeDirectoryMemberOfGroup(key []byte) (uint32, error) {
	return decodeUint32(key, 6)
}

// DirectoryMembersRange enumerates every principal directly belonging
// to group, the inverse walk of DirectoryMemberOfRange, for transitive
// cache-invalidation fan-out when a group or tenant changes.
func DirectoryMembersRange(group uint32) (lo, hi []byte) {
	prefix := New(Directory).AccountID(group).Byte(directoryMembers).MustBuild()
	return PrefixRange(prefix)
}

// DecodeDirectoryMembersPrincipal extracts the principal id back out
// of a key produced by DirectoryMembersKey.
func DecodeDirectoryMembersPrincipal(key []byte) (uint32, error) {
	return decodeUint32(key, 6)
}

// SearchIndexKey addresses one posting in the embedded search index.
func SearchIndexKey(index uint8, id uint32, field uint8, value []byte) []byte {
	return New(SearchIndex).FieldID(index).DocumentID(id).FieldID(field).Tail(value).MustBuild()
}

// DecodeSearchIndexKey extracts the (index, id, field) components
// back out of a key produced by SearchIndexKey, for a subspace scan
// that rebuilds the embedded backend's in-memory state.
func DecodeSearchIndexKey(key []byte) (index uint8, id uint32, field uint8, err error) {
	if index, err = decodeByte(key, 1); err != nil {
		return 0, 0, 0, err
	}
	if id, err = decodeUint32(key, 2); err != nil {
		return 0, 0, 0, err
	}
	if field, err = decodeByte(key, 6); err != nil {
		return 0, 0, 0, err
	}
	return index, id, field, nil
}

// CounterKey addresses a named 64-bit counter.
func CounterKey(name string, collision uint8) []byte {
	return New(Counter).HashedText(name, collision).MustBuild()
}

// ConfigKey addresses a named configuration value.
func ConfigKey(name string) []byte {
	return New(Config).Tail([]byte(name)).MustBuild()
}
