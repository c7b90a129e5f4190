package taskqueue

import "context"

// AlarmDispatcher delivers one VALARM trigger. Computing the trigger
// text and the actual delivery channel (push, email, webhook) is
// calendar/CalDAV-layer knowledge; AlarmHandler only owns getting the
// task leased, dispatched once, and retried on failure.
type AlarmDispatcher interface {
	SendAlarm(ctx context.Context, account, document uint32, payload []byte) error
}

// AlarmHandler services KindAlarm tasks.
type AlarmHandler struct {
	dispatcher AlarmDispatcher
}

func NewAlarmHandler(dispatcher AlarmDispatcher) *AlarmHandler {
	return &AlarmHandler{dispatcher: dispatcher}
}

func (h *AlarmHandler) Handle(ctx context.Context, task Task) error {
	return h.dispatcher.SendAlarm(ctx, task.Account, task.Document, task.Payload)
}
