package notification

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStream struct {
	mu  sync.Mutex
	got []Notification
	err error
}

func (s *recordingStream) Send(n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.got = append(s.got, *n)
	return nil
}

func (s *recordingStream) received() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]Notification, len(s.got))
	copy(result, s.got)
	return result
}

// blockingStream holds every Send until release is closed.
type blockingStream struct {
	release  chan struct{}
	active   atomic.Int32
	maxSeen  atomic.Int32
	sent     atomic.Int32
	returned atomic.Bool
	late     atomic.Int32
}

func (s *blockingStream) Send(n *Notification) error {
	if s.returned.Load() {
		s.late.Add(1)
	}
	cur := s.active.Add(1)
	for {
		seen := s.maxSeen.Load()
		if cur <= seen || s.maxSeen.CompareAndSwap(seen, cur) {
			break
		}
	}
	<-s.release
	s.active.Add(-1)
	s.sent.Add(1)
	return nil
}

func drain(sub *Subscription) []*Notification {
	var result []*Notification
	for {
		select {
		case n, ok := <-sub.C():
			if !ok {
				return result
			}
			result = append(result, n)
		default:
			return result
		}
	}
}

func TestManager_BroadcastToAllSubscribers(t *testing.T) {
	m := NewManager()
	a, b := m.Subscribe(), m.Subscribe()
	require.Equal(t, 2, m.SubscriberCount())
	assert.NotEqual(t, a.ID(), b.ID())

	m.Broadcast(&Notification{Type: TypeTrackStarted, TrackID: "audio1", State: "playing"})
	m.Broadcast(&Notification{Type: TypeTrackStopped, TrackID: "audio1", State: "idle"})

	for _, sub := range []*Subscription{a, b} {
		got := drain(sub)
		require.Len(t, got, 2)
		assert.Equal(t, uint64(1), got[0].SequenceNo)
		assert.Equal(t, TypeTrackStarted, got[0].Type)
		assert.False(t, got[0].Time.IsZero())
		assert.Equal(t, uint64(2), got[1].SequenceNo)
		assert.Equal(t, TypeTrackStopped, got[1].Type)
	}
}

func TestManager_Unsubscribe(t *testing.T) {
	m := NewManager()
	sub := m.Subscribe()

	m.Unsubscribe(sub.ID())
	m.Unsubscribe(sub.ID())
	m.Broadcast(&Notification{Type: TypeTrackStarted})

	_, ok := <-sub.C()
	assert.False(t, ok, "queue is closed")
	assert.Equal(t, 0, m.SubscriberCount())
}

func TestManager_FullQueueDropsNotifications(t *testing.T) {
	m := NewManager()
	sub := m.Subscribe()

	start := time.Now()
	for i := 0; i < subscriptionBufferSize+5; i++ {
		m.Broadcast(&Notification{Type: TypeTrackStarted})
	}
	assert.Less(t, time.Since(start), time.Second)

	got := drain(sub)
	require.Len(t, got, subscriptionBufferSize)
	assert.Equal(t, uint64(1), got[0].SequenceNo)
	assert.Equal(t, 1, m.SubscriberCount(), "a slow subscriber stays subscribed")
}

func TestSubscription_Forward(t *testing.T) {
	m := NewManager()
	sub := m.Subscribe()

	// Queued before the initial state was taken.
	m.Broadcast(&Notification{Type: TypeTrackStarted, TrackID: "audio1", State: "playing"})
	initial := &Notification{SequenceNo: m.NextSequenceNo(), Type: TypeInitialState, TrackID: "audio1", State: "playing"}
	m.Broadcast(&Notification{Type: TypeTrackStopped, TrackID: "audio1", State: "idle"})

	stream := &recordingStream{}
	done := make(chan error, 1)
	go func() { done <- sub.Forward(context.Background(), stream, initial) }()

	require.Eventually(t, func() bool { return len(stream.received()) == 2 }, 2*time.Second, 5*time.Millisecond)
	m.Unsubscribe(sub.ID())
	require.NoError(t, <-done)

	got := stream.received()
	assert.Equal(t, TypeInitialState, got[0].Type)
	assert.Equal(t, TypeTrackStopped, got[1].Type)
	assert.Equal(t, uint64(3), got[1].SequenceNo)
}

func TestSubscription_ForwardStopsOnErrorAndContext(t *testing.T) {
	m := NewManager()

	sub := m.Subscribe()
	m.Broadcast(&Notification{Type: TypeTrackStarted})
	err := sub.Forward(context.Background(), &recordingStream{err: errors.New("client went away")}, nil)
	assert.EqualError(t, err, "client went away")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = m.Subscribe().Forward(ctx, &recordingStream{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSubscription_BlockedStreamGetsSerialSends(t *testing.T) {
	m := NewManager()
	sub := m.Subscribe()
	stream := &blockingStream{release: make(chan struct{})}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		err := sub.Forward(ctx, stream, nil)
		stream.returned.Store(true)
		done <- err
	}()

	start := time.Now()
	m.Broadcast(&Notification{Type: TypeTrackStarted})
	m.Broadcast(&Notification{Type: TypeTrackStopped})
	m.Broadcast(&Notification{Type: TypeTrackStarted})
	assert.Less(t, time.Since(start), time.Second, "broadcast does not wait for a blocked stream")

	require.Eventually(t, func() bool { return stream.active.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	m.Unsubscribe(sub.ID())
	close(stream.release)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Forward did not return")
	}

	// Give any stray sender a chance to show up.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), stream.maxSeen.Load(), "Send is never called concurrently")
	assert.Equal(t, int32(0), stream.late.Load(), "no Send after Forward returned")
	assert.Equal(t, int32(1), stream.sent.Load())
}

func TestManager_Close(t *testing.T) {
	m := NewManager()
	sub := m.Subscribe()
	done := make(chan error, 1)
	go func() { done <- sub.Forward(context.Background(), &recordingStream{}, nil) }()

	m.Close()
	assert.Equal(t, 0, m.SubscriberCount())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Forward did not return after Close")
	}
}

func TestManager_NextSequenceNo(t *testing.T) {
	m := NewManager()
	assert.Equal(t, uint64(1), m.NextSequenceNo())
	assert.Equal(t, uint64(2), m.NextSequenceNo())
}
