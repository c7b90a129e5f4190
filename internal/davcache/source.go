package davcache

import "context"

// Source supplies the resource archives a Snapshot is built from. A
// full scan backs the first build for a (account, collection) pair;
// FetchByIDs backs the incremental refresh that follows a changes()
// call, requesting only the ids the change log reported as
// inserted or updated.
type Source interface {
	ScanAll(ctx context.Context, account uint32, collection uint8) ([]Resource, error)
	FetchByIDs(ctx context.Context, account uint32, collection uint8, ids []uint32) ([]Resource, error)
}
