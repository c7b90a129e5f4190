package statemgr

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cuemby/storectl/pkg/config"
	"github.com/cuemby/storectl/pkg/log"
	"github.com/cuemby/storectl/pkg/metrics"
)

// channelBuffer is the per-channel-subscriber buffer depth, matching
// the teacher's Broker.Subscribe buffer of 50.
const channelBuffer = 50

// publishBuffer is the depth of Manager's internal publish queue,
// matching the teacher's Broker.eventCh buffer of 100.
const publishBuffer = 100

// Manager is the single long-lived pub/sub router spec.md §4.11
// describes: Publish hands changes to one run-loop goroutine that
// dispatches them in order, while Subscribe, Unsubscribe,
// UpdateSubscriptions and UpdateSharedAccounts change the subscriber
// and shared-account maps directly under the Manager's mutex.
type Manager struct {
	cfg        config.StateManagerConfig
	pushSender PushSender

	mu          sync.RWMutex
	subscribers map[uint32]map[string]*subscriber // account -> id -> subscriber
	shared      map[uint32]map[uint32]DataType    // owner account -> shared account -> allowed types

	publishCh chan StateChange
	logger    zerolog.Logger
	stopCh    chan struct{}
}

// NewManager builds a Manager. pushSender may be nil if the deployment
// has no push subscribers; SubscribePush then always fails.
func NewManager(cfg config.StateManagerConfig, pushSender PushSender) *Manager {
	return &Manager{
		cfg:         cfg,
		pushSender:  pushSender,
		subscribers: make(map[uint32]map[string]*subscriber),
		shared:      make(map[uint32]map[uint32]DataType),
		publishCh:   make(chan StateChange, publishBuffer),
		logger:      log.WithComponent("state-manager"),
		stopCh:      make(chan struct{}),
	}
}

// Start begins the dispatch and purge loops.
func (m *Manager) Start() { go m.run() }

// Stop ends the dispatch and purge loops.
func (m *Manager) Stop() { close(m.stopCh) }

func (m *Manager) run() {
	purgeTicker := time.NewTicker(m.cfg.PurgeInterval)
	defer purgeTicker.Stop()

	for {
		select {
		case change := <-m.publishCh:
			m.broadcast(change)
		case <-purgeTicker.C:
			m.purge()
		case <-m.stopCh:
			return
		}
	}
}

// Subscribe registers an in-process channel subscriber for account,
// interested in the given types mask, and returns the channel to read
// from plus the subscription id needed to Unsubscribe or
// UpdateSubscriptions later.
func (m *Manager) Subscribe(account uint32, types DataType) (id string, ch <-chan StateChange) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id = newSubscriberID()
	sub := newChannelSubscriber(id, account, types, channelBuffer)
	m.addLocked(sub)
	return id, sub.ch
}

// SubscribePush registers a push endpoint subscriber that expires at
// expiresAt unless renewed by a later SubscribePush call with the same
// id. Returns false if no PushSender was configured.
func (m *Manager) SubscribePush(id string, account uint32, types DataType, expiresAt time.Time) bool {
	if m.pushSender == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.addLocked(newPushSubscriber(id, account, types, expiresAt))
	return true
}

func (m *Manager) addLocked(sub *subscriber) {
	byID, ok := m.subscribers[sub.account]
	if !ok {
		byID = make(map[string]*subscriber)
		m.subscribers[sub.account] = byID
	}
	byID[sub.id] = sub
	metrics.StateSubscribers.Set(float64(m.countLocked()))
}

// Unsubscribe removes a subscription and closes its channel, if any.
func (m *Manager) Unsubscribe(account uint32, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byID, ok := m.subscribers[account]
	if !ok {
		return
	}
	if sub, ok := byID[id]; ok && sub.ch != nil {
		close(sub.ch)
	}
	delete(byID, id)
	if len(byID) == 0 {
		delete(m.subscribers, account)
	}
	metrics.StateSubscribers.Set(float64(m.countLocked()))
}

// UpdateSubscriptions changes the data-type mask an existing
// subscription is interested in.
func (m *Manager) UpdateSubscriptions(account uint32, id string, types DataType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if byID, ok := m.subscribers[account]; ok {
		if sub, ok := byID[id]; ok {
			sub.types = types
		}
	}
}

// UpdateSharedAccounts adds or removes the derived owner->shared edge
// spec.md §4.11 says is kept in sync by re-reading an access token:
// the caller (internal/accesstoken's consumer) re-derives allowedTypes
// from SharedAccess and calls this whenever it changes. allowedTypes
// of zero removes the edge entirely.
func (m *Manager) UpdateSharedAccounts(ownerAccount, sharedAccount uint32, allowedTypes DataType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if allowedTypes == 0 {
		if byShared, ok := m.shared[ownerAccount]; ok {
			delete(byShared, sharedAccount)
			if len(byShared) == 0 {
				delete(m.shared, ownerAccount)
			}
		}
		return
	}

	byShared, ok := m.shared[ownerAccount]
	if !ok {
		byShared = make(map[uint32]DataType)
		m.shared[ownerAccount] = byShared
	}
	byShared[sharedAccount] = allowedTypes
}

// Publish enqueues change for dispatch. It does not block on delivery
// to any one subscriber; Publish itself only blocks if the internal
// publish queue is full, matching the teacher's Broker.Publish.
func (m *Manager) Publish(change StateChange) {
	select {
	case m.publishCh <- change:
	case <-m.stopCh:
	}
}

func (m *Manager) countLocked() int {
	n := 0
	for _, byID := range m.subscribers {
		n += len(byID)
	}
	return n
}

// broadcast projects change to every subscriber on the owning account
// directly, then to every account the owner has shared access with,
// filtered to the intersection of what is allowed and what each
// subscriber is itself interested in, per spec.md §4.11.
func (m *Manager) broadcast(change StateChange) {
	m.mu.RLock()
	direct := snapshotSubs(m.subscribers[change.Account])
	var indirect []*subscriber
	if byShared, ok := m.shared[change.Account]; ok {
		for sharedAccount, allowed := range byShared {
			if allowed&change.Type == 0 {
				continue
			}
			indirect = append(indirect, snapshotSubs(m.subscribers[sharedAccount])...)
		}
	}
	m.mu.RUnlock()

	for _, sub := range direct {
		m.dispatchOne(sub, change)
	}
	for _, sub := range indirect {
		if sub.types&change.Type == 0 {
			continue
		}
		m.dispatchOne(sub, change)
	}
}

func snapshotSubs(byID map[string]*subscriber) []*subscriber {
	subs := make([]*subscriber, 0, len(byID))
	for _, sub := range byID {
		subs = append(subs, sub)
	}
	return subs
}

// dispatchOne delivers change to sub with the 500ms-class send-timeout
// spec.md §4.11 requires, dropping the notification rather than
// blocking the broadcast loop on one slow client.
func (m *Manager) dispatchOne(sub *subscriber, change StateChange) {
	if sub.types&change.Type == 0 {
		return
	}

	if sub.isPush() {
		m.dispatchPush(sub, change)
		return
	}

	select {
	case sub.ch <- change:
		metrics.StateDispatchedTotal.Inc()
	case <-time.After(m.cfg.SendTimeout):
		metrics.StateDroppedTotal.Inc()
	}
}

func (m *Manager) dispatchPush(sub *subscriber, change StateChange) {
	done := make(chan error, 1)
	go func() { done <- m.pushSender.SendPush(sub.id, change) }()

	select {
	case err := <-done:
		if err != nil {
			m.logger.Warn().Err(err).Str("subscriber_id", sub.id).Msg("push delivery failed")
			metrics.StateDroppedTotal.Inc()
			return
		}
		metrics.StateDispatchedTotal.Inc()
	case <-time.After(m.cfg.SendTimeout):
		metrics.StateDroppedTotal.Inc()
	}
}

// purge removes expired push subscriptions, matching spec.md §4.11's
// hourly sweep. In-process channel subscribers are removed explicitly
// via Unsubscribe by their owning connection, not by this sweep.
func (m *Manager) purge() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	removed := 0
	for account, byID := range m.subscribers {
		for id, sub := range byID {
			if sub.expired(now) {
				delete(byID, id)
				removed++
			}
		}
		if len(byID) == 0 {
			delete(m.subscribers, account)
		}
	}
	if removed > 0 {
		metrics.StateSubscribers.Set(float64(m.countLocked()))
		m.logger.Debug().Int("removed", removed).Msg("purged expired push subscriptions")
	}
}
