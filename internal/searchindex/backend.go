package searchindex

import "context"

// Backend is the text-search backend contract spec.md §6 names:
// index/query/unindex, implementable by an embedded postings store or
// an external search service.
type Backend interface {
	// Index folds documents into the backend, replacing any prior
	// content for the same (Index, ID) pairs.
	Index(ctx context.Context, documents []Document) error

	// Query returns matching document ids in comparator order.
	Query(ctx context.Context, index uint8, filter Filter, comparators []Comparator) ([]uint32, error)

	// Unindex removes every document matching filter and reports how
	// many were removed.
	Unindex(ctx context.Context, index uint8, filter Filter) (int, error)
}
