// Package jukebox wires the track registry, the playback controller and the
// notification fan-out together.
package jukebox

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/NestorKrdona/Audio-Play-Robot/internal/app/notification"
	"github.com/NestorKrdona/Audio-Play-Robot/internal/app/playback"
	"github.com/NestorKrdona/Audio-Play-Robot/internal/app/registry"
	"github.com/NestorKrdona/Audio-Play-Robot/internal/domain/track"
)

// Output is the audio device owned by the manager.
type Output interface {
	playback.Output
	Close() error
}

// Manager owns every piece of mutable playback state for one server.
type Manager struct {
	tracks       *registry.TrackRegistry
	playback     *playback.Controller
	output       Output
	notification *notification.Manager

	closeOnce sync.Once
	done      chan struct{}
}

// NewManager creates a manager for the given tracks and output.
func NewManager(tracks []track.Track, output Output) (*Manager, error) {
	reg, err := registry.NewTrackRegistry(tracks)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build track registry")
	}

	return &Manager{
		tracks:       reg,
		playback:     playback.NewController(reg, output),
		output:       output,
		notification: notification.NewManager(),
		done:         make(chan struct{}),
	}, nil
}

// Start forwards playback events to subscribers until ctx is cancelled or
// the manager is closed.
func (m *Manager) Start(ctx context.Context) error {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Msgf("jukebox: event loop panicked: %v", r)
		}
	}()

	zlog.Info().Msgf("jukebox: started with %d tracks", m.tracks.Len())

	events := m.playback.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.done:
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			m.handlePlaybackEvent(event)
		}
	}
}

// handlePlaybackEvent turns a controller event into a notification.
func (m *Manager) handlePlaybackEvent(event playback.Event) {
	zlog.Debug().Msgf("jukebox: playback event: type=%s", event.Type)

	n := &notification.Notification{State: event.State.String()}
	if event.Track != nil {
		n.TrackID = event.Track.ID
	}

	switch event.Type {
	case playback.EventTrackStarted:
		n.Type = notification.TypeTrackStarted
	case playback.EventTrackStopped:
		n.Type = notification.TypeTrackStopped
	case playback.EventPlaybackFailed:
		n.Type = notification.TypePlaybackFailed
	default:
		return
	}

	m.notification.Broadcast(n)
}

// Has reports whether a track is registered under id.
func (m *Manager) Has(id string) bool {
	return m.tracks.Has(id)
}

// Tracks returns all registered tracks in configuration order.
func (m *Manager) Tracks() []track.Track {
	return m.tracks.Tracks()
}

// Play starts looping the track registered under id.
func (m *Manager) Play(id string) error {
	return m.playback.Play(id)
}

// Stop stops playback.
func (m *Manager) Stop() error {
	return m.playback.Stop()
}

// Status is a snapshot of the player.
type Status struct {
	State       playback.State
	Current     *track.Track
	Subscribers int
}

// GetStatus returns the current status.
func (m *Manager) GetStatus() Status {
	s := Status{
		State:       playback.StateIdle,
		Subscribers: m.notification.SubscriberCount(),
	}
	if t, ok := m.playback.CurrentTrack(); ok {
		s.State = playback.StatePlaying
		s.Current = &t
	}
	return s
}

// InitialNotification describes the current state for a new subscriber.
func (m *Manager) InitialNotification() *notification.Notification {
	// The sequence number is taken before the state is read, so any event
	// numbered after it happened after the snapshot.
	n := &notification.Notification{
		SequenceNo: m.notification.NextSequenceNo(),
		Type:       notification.TypeInitialState,
		State:      playback.StateIdle.String(),
	}
	if id, ok := m.playback.Current(); ok {
		n.TrackID = id
		n.State = playback.StatePlaying.String()
	}
	return n
}

// GetNotificationManager returns the notification manager.
func (m *Manager) GetNotificationManager() *notification.Manager {
	return m.notification
}

// Done is closed when the manager is closed.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Close stops playback and releases the output.
func (m *Manager) Close() error {
	var err error
	m.closeOnce.Do(func() {
		if stopErr := m.playback.Close(); stopErr != nil {
			err = stopErr
		}
		if closeErr := m.output.Close(); closeErr != nil {
			err = errors.CombineErrors(err, errors.Wrap(closeErr, "failed to close audio output"))
		}
		m.notification.Close()
		close(m.done)
	})
	return err
}
