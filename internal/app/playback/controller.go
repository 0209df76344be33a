package playback

import (
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/NestorKrdona/Audio-Play-Robot/internal/domain/track"
)

// Errors
var (
	ErrTrackNotFound  = errors.New("audio not found")
	ErrPlaybackFailed = errors.New("playback failed")
	ErrClosed         = errors.New("controller is closed")
)

// eventBufferSize is the capacity of the event channel.
const eventBufferSize = 16

// Output is the audio device the controller drives. Implementations must
// replace whatever is playing when LoadAndLoop is called.
type Output interface {
	LoadAndLoop(path string) error
	Stop() error
}

// TrackLookup resolves track IDs to tracks.
type TrackLookup interface {
	Lookup(id string) (track.Track, bool)
}

// Controller holds the single "currently playing" track and issues commands
// to the output. All output commands are issued with the lock held.
type Controller struct {
	mu sync.Mutex

	tracks TrackLookup
	output Output

	current *track.Track
	closed  bool

	eventCh chan Event
}

// NewController creates a new playback controller.
func NewController(tracks TrackLookup, output Output) *Controller {
	return &Controller{
		tracks:  tracks,
		output:  output,
		eventCh: make(chan Event, eventBufferSize),
	}
}

// Events returns the event channel. It is closed by Close.
func (c *Controller) Events() <-chan Event {
	return c.eventCh
}

// Play starts looping the track registered under id.
// Playing the track that is already current is a no-op.
func (c *Controller) Play(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	t, ok := c.tracks.Lookup(id)
	if !ok {
		return errors.Wrapf(ErrTrackNotFound, "track %q", id)
	}

	if c.current != nil && c.current.ID == id {
		zlog.Debug().Msgf("playback: already playing, ignoring: track=%s", id)
		return nil
	}

	if err := c.output.LoadAndLoop(t.Path); err != nil {
		// The output may already have torn down the previous loop.
		c.current = nil
		c.sendEventLocked(Event{
			Type:  EventPlaybackFailed,
			Track: &t,
			State: StateIdle,
		})
		return errors.Mark(errors.Wrapf(err, "failed to play %s (%s)", id, t.Path), ErrPlaybackFailed)
	}

	c.current = &t
	zlog.Info().Msgf("playback: looping track: id=%s path=%s", t.ID, t.Path)

	c.sendEventLocked(Event{
		Type:  EventTrackStarted,
		Track: c.current,
		State: StatePlaying,
	})

	return nil
}

// Stop halts playback. Stopping when nothing is playing is a no-op.
// The current track is cleared even if the output reports an error.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stopLocked()
}

func (c *Controller) stopLocked() error {
	if c.current == nil {
		return nil
	}

	stopped := c.current
	c.current = nil

	err := c.output.Stop()
	zlog.Info().Msgf("playback: stopped: id=%s", stopped.ID)

	c.sendEventLocked(Event{
		Type:  EventTrackStopped,
		Track: stopped,
		State: StateIdle,
	})

	if err != nil {
		return errors.Mark(errors.Wrapf(err, "failed to stop %s", stopped.ID), ErrPlaybackFailed)
	}
	return nil
}

// Current returns the ID of the track currently looping.
func (c *Controller) Current() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return "", false
	}
	return c.current.ID, true
}

// CurrentTrack returns a copy of the track currently looping.
func (c *Controller) CurrentTrack() (track.Track, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return track.Track{}, false
	}
	return *c.current, true
}

// State returns the current playback state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return StateIdle
	}
	return StatePlaying
}

// Close stops playback and closes the event channel. Subsequent calls to
// Play return ErrClosed.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	err := c.stopLocked()
	c.closed = true
	close(c.eventCh)
	return err
}

// sendEventLocked sends an event without blocking.
// Must be called with lock held.
func (c *Controller) sendEventLocked(e Event) {
	if c.closed {
		return
	}
	select {
	case c.eventCh <- e:
	default:
		zlog.Warn().Msgf("playback: event channel full, dropping event: type=%s", e.Type)
	}
}
