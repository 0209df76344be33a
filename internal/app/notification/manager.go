// Package notification provides the notification manager for broadcasting playback events.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
)

// Notification types.
const (
	TypeInitialState   = "initial_state"
	TypeTrackStarted   = "track_started"
	TypeTrackStopped   = "track_stopped"
	TypePlaybackFailed = "playback_failed"
)

// subscriptionBufferSize is the number of notifications queued per subscriber
// before new ones are dropped.
const subscriptionBufferSize = 16

// Notification is a playback event delivered to subscribers.
type Notification struct {
	SequenceNo uint64
	Type       string
	TrackID    string // empty when nothing is playing
	State      string // "idle" or "playing"
	Time       time.Time
}

// Stream represents a notification stream for a subscriber.
type Stream interface {
	Send(*Notification) error
}

// Subscription is one subscriber's queue. The queue is closed when the
// subscription is removed or the manager is closed.
type Subscription struct {
	id    string
	queue chan *Notification
}

// ID returns the subscription ID.
func (s *Subscription) ID() string {
	return s.id
}

// C returns the queued notifications.
func (s *Subscription) C() <-chan *Notification {
	return s.queue
}

// Forward sends initial, then every queued notification newer than it, to
// stream from the calling goroutine. It returns when ctx is done, the
// subscription is closed, or stream fails. Send is never called after
// Forward returns.
func (s *Subscription) Forward(ctx context.Context, stream Stream, initial *Notification) error {
	var since uint64
	if initial != nil {
		if err := stream.Send(initial); err != nil {
			return err
		}
		since = initial.SequenceNo
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n, ok := <-s.queue:
			if !ok {
				return nil
			}
			// Already reflected in the initial state.
			if n.SequenceNo <= since {
				continue
			}
			if err := stream.Send(n); err != nil {
				return err
			}
		}
	}
}

// Manager manages notification subscriptions and broadcasting.
type Manager struct {
	mu            sync.RWMutex
	subscriptions map[string]*Subscription
	sequenceNo    uint64
	sequenceNoMu  sync.Mutex
}

// NewManager creates a new notification manager.
func NewManager() *Manager {
	return &Manager{
		subscriptions: make(map[string]*Subscription),
	}
}

// Subscribe adds a new subscription.
func (m *Manager) Subscribe() *Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub := &Subscription{
		id:    uuid.New().String(),
		queue: make(chan *Notification, subscriptionBufferSize),
	}
	m.subscriptions[sub.id] = sub
	return sub
}

// NextSequenceNo returns the next sequence number and increments the counter.
func (m *Manager) NextSequenceNo() uint64 {
	m.sequenceNoMu.Lock()
	defer m.sequenceNoMu.Unlock()
	m.sequenceNo++
	return m.sequenceNo
}

// Unsubscribe removes a subscription and closes its queue.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sub, ok := m.subscriptions[subscriptionID]; ok {
		delete(m.subscriptions, subscriptionID)
		close(sub.queue)
	}
}

// Broadcast stamps the notification with the next sequence number and queues
// it for every subscriber. A subscriber whose queue is full misses it.
func (m *Manager) Broadcast(n *Notification) {
	n.SequenceNo = m.NextSequenceNo()
	if n.Time.IsZero() {
		n.Time = time.Now()
	}

	// Queues are only closed under the write lock.
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscriptions {
		select {
		case sub.queue <- n:
		default:
			zlog.Warn().Msgf("notification: queue full, dropping: subscriber=%s seq=%d", sub.id, n.SequenceNo)
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close removes all subscriptions, closing their queues.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, sub := range m.subscriptions {
		close(sub.queue)
		delete(m.subscriptions, id)
	}
}
