package taskqueue

import "context"

// IMIPDispatcher sends one iTIP/iMIP scheduling message (REQUEST,
// REPLY, CANCEL, ...). Composing the iCalendar body and choosing the
// outbound transport is scheduling-layer knowledge outside this
// storage core; IMIPHandler only owns the retry contract.
type IMIPDispatcher interface {
	SendIMIP(ctx context.Context, account, document uint32, payload []byte) error
}

// IMIPHandler services KindIMIP tasks.
type IMIPHandler struct {
	dispatcher IMIPDispatcher
}

func NewIMIPHandler(dispatcher IMIPDispatcher) *IMIPHandler {
	return &IMIPHandler{dispatcher: dispatcher}
}

func (h *IMIPHandler) Handle(ctx context.Context, task Task) error {
	return h.dispatcher.SendIMIP(ctx, task.Account, task.Document, task.Payload)
}
