package taskqueue

import (
	"context"

	"github.com/cuemby/storectl/internal/searchindex"
)

// IndexFetcher loads the current indexable snapshot of one document.
// ok is false when the document has since been deleted, in which case
// IndexHandler unindexes it instead of folding in stale content.
type IndexFetcher interface {
	Fetch(ctx context.Context, account, document uint32) (doc searchindex.Document, ok bool, err error)
}

// IndexHandler services KindIndexUpdate tasks: it re-reads the current
// state of the changed document and folds it into the search backend,
// keeping the index eventually consistent with committed mutations
// without holding up the commit path itself.
type IndexHandler struct {
	backend searchindex.Backend
	fetch   IndexFetcher
	index   uint8
}

// NewIndexHandler builds an IndexHandler for one search index
// identifier (mail, contacts, events, ... per spec.md §3's Index enum).
func NewIndexHandler(backend searchindex.Backend, fetch IndexFetcher, index uint8) *IndexHandler {
	return &IndexHandler{backend: backend, fetch: fetch, index: index}
}

func (h *IndexHandler) Handle(ctx context.Context, task Task) error {
	doc, ok, err := h.fetch.Fetch(ctx, task.Account, task.Document)
	if err != nil {
		return err
	}
	if !ok {
		_, err := h.backend.Unindex(ctx, h.index, searchindex.DocumentSet([]uint32{task.Document}))
		return err
	}
	return h.backend.Index(ctx, []searchindex.Document{doc})
}
