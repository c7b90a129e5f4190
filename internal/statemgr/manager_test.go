package statemgr

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cuemby/storectl/pkg/config"
)

func testConfig() config.StateManagerConfig {
	return config.StateManagerConfig{
		SendTimeout:   50 * time.Millisecond,
		PurgeInterval: time.Hour,
	}
}

func TestManager_DirectSubscriberReceivesMatchingChange(t *testing.T) {
	m := NewManager(testConfig(), nil)
	_, ch := m.Subscribe(1, 0b0001)

	m.broadcast(StateChange{Account: 1, Type: 0b0001, Payload: []byte("hi")})

	select {
	case change := <-ch:
		if string(change.Payload) != "hi" {
			t.Fatalf("payload = %q, want %q", change.Payload, "hi")
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber never received the change")
	}
}

func TestManager_SubscriberIgnoresNonMatchingType(t *testing.T) {
	m := NewManager(testConfig(), nil)
	_, ch := m.Subscribe(1, 0b0001)

	m.broadcast(StateChange{Account: 1, Type: 0b0010})

	select {
	case change := <-ch:
		t.Fatalf("unexpected delivery: %+v", change)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestManager_SharedAccountSubscriberReceivesAllowedType(t *testing.T) {
	m := NewManager(testConfig(), nil)
	_, ch := m.Subscribe(2, 0b0001)

	m.UpdateSharedAccounts(1, 2, 0b0001)
	m.broadcast(StateChange{Account: 1, Type: 0b0001})

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("shared-account subscriber never received the change")
	}
}

func TestManager_SharedAccountSubscriberBlockedByDisallowedType(t *testing.T) {
	m := NewManager(testConfig(), nil)
	_, ch := m.Subscribe(2, 0b0011)

	m.UpdateSharedAccounts(1, 2, 0b0001) // owner only allows type 0b0001
	m.broadcast(StateChange{Account: 1, Type: 0b0010})

	select {
	case change := <-ch:
		t.Fatalf("unexpected delivery: %+v", change)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestManager_UpdateSharedAccountsRemovesEdgeOnZeroMask(t *testing.T) {
	m := NewManager(testConfig(), nil)
	_, ch := m.Subscribe(2, 0b0001)

	m.UpdateSharedAccounts(1, 2, 0b0001)
	m.UpdateSharedAccounts(1, 2, 0)
	m.broadcast(StateChange{Account: 1, Type: 0b0001})

	select {
	case change := <-ch:
		t.Fatalf("unexpected delivery after edge removal: %+v", change)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestManager_UnsubscribeClosesChannel(t *testing.T) {
	m := NewManager(testConfig(), nil)
	id, ch := m.Subscribe(1, 0b0001)

	m.Unsubscribe(1, id)

	_, open := <-ch
	if open {
		t.Fatal("channel still open after Unsubscribe")
	}
}

func TestManager_DispatchDropsSlowSubscriberAfterTimeout(t *testing.T) {
	m := NewManager(testConfig(), nil)
	_, ch := m.Subscribe(1, 0b0001)
	_ = ch // never drained, so its buffer fills immediately below

	for i := 0; i < channelBuffer; i++ {
		m.broadcast(StateChange{Account: 1, Type: 0b0001})
	}

	start := time.Now()
	m.broadcast(StateChange{Account: 1, Type: 0b0001})
	if elapsed := time.Since(start); elapsed < m.cfg.SendTimeout {
		t.Fatalf("broadcast returned in %v, want at least the %v send timeout", elapsed, m.cfg.SendTimeout)
	}
}

type fakePushSender struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakePushSender) SendPush(subscriberID string, _ StateChange) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, subscriberID)
	return f.err
}

func TestManager_SubscribePushDeliversViaPushSender(t *testing.T) {
	sender := &fakePushSender{}
	m := NewManager(testConfig(), sender)

	if ok := m.SubscribePush("push-1", 1, 0b0001, time.Now().Add(time.Hour)); !ok {
		t.Fatal("SubscribePush() = false, want true")
	}

	m.broadcast(StateChange{Account: 1, Type: 0b0001})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		sender.mu.Lock()
		n := len(sender.sent)
		sender.mu.Unlock()
		if n == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("push sender never invoked")
}

func TestManager_SubscribePushWithoutSenderFails(t *testing.T) {
	m := NewManager(testConfig(), nil)
	if ok := m.SubscribePush("push-1", 1, 0b0001, time.Now().Add(time.Hour)); ok {
		t.Fatal("SubscribePush() = true with no PushSender configured, want false")
	}
}

func TestManager_PurgeRemovesExpiredPushSubscriptions(t *testing.T) {
	m := NewManager(testConfig(), &fakePushSender{})
	m.SubscribePush("push-1", 1, 0b0001, time.Now().Add(-time.Second))

	m.purge()

	m.mu.RLock()
	_, stillPresent := m.subscribers[1]["push-1"]
	m.mu.RUnlock()
	if stillPresent {
		t.Fatal("expired push subscription survived purge")
	}
}

func TestManager_UpdateSubscriptionsChangesTypeMask(t *testing.T) {
	m := NewManager(testConfig(), nil)
	id, ch := m.Subscribe(1, 0b0001)

	m.UpdateSubscriptions(1, id, 0b0010)
	m.broadcast(StateChange{Account: 1, Type: 0b0001}) // no longer interested

	select {
	case change := <-ch:
		t.Fatalf("unexpected delivery after narrowing subscription: %+v", change)
	case <-time.After(50 * time.Millisecond):
	}

	m.broadcast(StateChange{Account: 1, Type: 0b0010})
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("subscriber never received change matching its updated mask")
	}
}

var errPushFailed = errors.New("push transport unavailable")

func TestManager_DispatchPushErrorCountsAsDropped(t *testing.T) {
	sender := &fakePushSender{err: errPushFailed}
	m := NewManager(testConfig(), sender)
	m.SubscribePush("push-1", 1, 0b0001, time.Now().Add(time.Hour))

	// dispatchPush logs and counts the drop; it must not block or panic.
	done := make(chan struct{})
	go func() {
		m.broadcast(StateChange{Account: 1, Type: 0b0001})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast with a failing push sender never returned")
	}
}
