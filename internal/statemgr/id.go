package statemgr

import "github.com/google/uuid"

// newSubscriberID mints a subscription id the same way the teacher
// mints resource ids throughout pkg/manager.
func newSubscriberID() string {
	return uuid.New().String()
}
