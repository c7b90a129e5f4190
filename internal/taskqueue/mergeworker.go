package taskqueue

import "context"

// MergeDispatcher folds a duplicate thread/contact into its canonical
// document. The merge rule itself (which fields win, how conflicting
// edits reconcile) is JMAP/contacts-layer knowledge; MergeHandler only
// owns getting it leased, attempted, and retried.
type MergeDispatcher interface {
	MergeThreads(ctx context.Context, account, document uint32, payload []byte) error
}

// MergeHandler services KindMerge tasks.
type MergeHandler struct {
	dispatcher MergeDispatcher
}

func NewMergeHandler(dispatcher MergeDispatcher) *MergeHandler {
	return &MergeHandler{dispatcher: dispatcher}
}

func (h *MergeHandler) Handle(ctx context.Context, task Task) error {
	return h.dispatcher.MergeThreads(ctx, task.Account, task.Document, task.Payload)
}
