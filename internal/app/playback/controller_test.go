package playback

import (
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NestorKrdona/Audio-Play-Robot/internal/app/playback/playbacktest"
	"github.com/NestorKrdona/Audio-Play-Robot/internal/app/registry"
	"github.com/NestorKrdona/Audio-Play-Robot/internal/domain/track"
)

func newTestController(t *testing.T) (*Controller, *playbacktest.RecordingOutput) {
	t.Helper()
	reg, err := registry.NewTrackRegistry([]track.Track{
		{ID: "audio1", Path: "a.mp3"},
		{ID: "audio2", Path: "b.mp3"},
	})
	require.NoError(t, err)

	out := playbacktest.NewRecordingOutput()
	return NewController(reg, out), out
}

func TestController_PlayThenStop(t *testing.T) {
	c, out := newTestController(t)

	require.NoError(t, c.Play("audio1"))
	id, ok := c.Current()
	assert.True(t, ok)
	assert.Equal(t, "audio1", id)
	assert.Equal(t, StatePlaying, c.State())
	assert.Equal(t, "a.mp3", out.Playing())

	require.NoError(t, c.Stop())
	_, ok = c.Current()
	assert.False(t, ok)
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, 1, out.Stops())
	assert.Empty(t, out.Playing())
}

func TestController_PlaySameTrackIsIdempotent(t *testing.T) {
	c, out := newTestController(t)

	require.NoError(t, c.Play("audio1"))
	require.NoError(t, c.Play("audio1"))

	assert.Equal(t, []string{"a.mp3"}, out.Loads())
}

func TestController_PlayOtherTrackSwitches(t *testing.T) {
	c, out := newTestController(t)

	require.NoError(t, c.Play("audio1"))
	require.NoError(t, c.Play("audio2"))
	require.NoError(t, c.Play("audio1"))

	assert.Equal(t, []string{"a.mp3", "b.mp3", "a.mp3"}, out.Loads())
	id, _ := c.Current()
	assert.Equal(t, "audio1", id)
}

func TestController_PlayUnknownTrack(t *testing.T) {
	c, out := newTestController(t)
	require.NoError(t, c.Play("audio2"))

	err := c.Play("audio3")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTrackNotFound))

	id, ok := c.Current()
	assert.True(t, ok)
	assert.Equal(t, "audio2", id, "unknown track must leave the current track unchanged")
	assert.Equal(t, []string{"b.mp3"}, out.Loads())
}

func TestController_StopWhenIdleIsNoop(t *testing.T) {
	c, out := newTestController(t)

	require.NoError(t, c.Stop())
	require.NoError(t, c.Stop())

	assert.Equal(t, 0, out.Stops())
	assert.Equal(t, StateIdle, c.State())
}

func TestController_LoadFailure(t *testing.T) {
	c, out := newTestController(t)
	require.NoError(t, c.Play("audio1"))

	out.LoadErr = errors.New("device busy")
	err := c.Play("audio2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPlaybackFailed))
	assert.Contains(t, err.Error(), "device busy")

	_, ok := c.Current()
	assert.False(t, ok)

	// A retry after the device recovers loads again.
	out.LoadErr = nil
	require.NoError(t, c.Play("audio2"))
	assert.Equal(t, []string{"a.mp3", "b.mp3", "b.mp3"}, out.Loads())
}

func TestController_StopFailureStillClearsState(t *testing.T) {
	c, out := newTestController(t)
	require.NoError(t, c.Play("audio1"))

	out.StopErr = errors.New("device gone")
	err := c.Stop()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPlaybackFailed))
	assert.Equal(t, StateIdle, c.State())
}

func TestController_ConcurrentPlayLoadsOnce(t *testing.T) {
	c, out := newTestController(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.Play("audio1"))
		}()
	}
	wg.Wait()

	assert.Len(t, out.Loads(), 1)
}

func TestController_Events(t *testing.T) {
	c, _ := newTestController(t)

	require.NoError(t, c.Play("audio1"))
	require.NoError(t, c.Play("audio1"))
	require.NoError(t, c.Stop())

	e := <-c.Events()
	assert.Equal(t, EventTrackStarted, e.Type)
	assert.Equal(t, "audio1", e.Track.ID)
	assert.Equal(t, StatePlaying, e.State)

	e = <-c.Events()
	assert.Equal(t, EventTrackStopped, e.Type)
	assert.Equal(t, "audio1", e.Track.ID)
	assert.Equal(t, StateIdle, e.State)

	select {
	case e := <-c.Events():
		t.Fatalf("unexpected event: %s", e.Type)
	default:
	}
}

func TestController_EventsDroppedWhenFull(t *testing.T) {
	c, _ := newTestController(t)

	for i := 0; i < eventBufferSize+4; i++ {
		id := "audio1"
		if i%2 == 1 {
			id = "audio2"
		}
		require.NoError(t, c.Play(id))
	}

	assert.Len(t, c.Events(), eventBufferSize)
}

func TestController_Close(t *testing.T) {
	c, out := newTestController(t)
	require.NoError(t, c.Play("audio1"))

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.Equal(t, 1, out.Stops())

	err := c.Play("audio2")
	assert.True(t, errors.Is(err, ErrClosed))

	// Drain: started, stopped, then closed channel.
	var types []EventType
	for e := range c.Events() {
		types = append(types, e.Type)
	}
	assert.Equal(t, []EventType{EventTrackStarted, EventTrackStopped}, types)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "playing", StatePlaying.String())
	assert.Equal(t, "unknown", State(42).String())
	assert.Equal(t, "track_started", EventTrackStarted.String())
	assert.Equal(t, "playback_failed", EventPlaybackFailed.String())
}
