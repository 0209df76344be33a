// Package registry provides the fixed table of playable tracks.
package registry

import (
	"github.com/cockroachdb/errors"

	"github.com/NestorKrdona/Audio-Play-Robot/internal/domain/track"
)

var (
	ErrEmptyTrackID   = errors.New("track id is empty")
	ErrEmptyTrackPath = errors.New("track path is empty")
	ErrDuplicateTrack = errors.New("duplicate track id")
)

// TrackRegistry maps track IDs to audio files. It is populated once at
// startup and never mutated afterwards, so concurrent reads need no locking.
type TrackRegistry struct {
	order  []string
	tracks map[string]track.Track
}

// NewTrackRegistry creates a registry from the given tracks, keeping their order.
func NewTrackRegistry(tracks []track.Track) (*TrackRegistry, error) {
	r := &TrackRegistry{
		order:  make([]string, 0, len(tracks)),
		tracks: make(map[string]track.Track, len(tracks)),
	}

	for i, t := range tracks {
		if t.ID == "" {
			return nil, errors.Wrapf(ErrEmptyTrackID, "track index %d", i)
		}
		if t.Path == "" {
			return nil, errors.Wrapf(ErrEmptyTrackPath, "track %q", t.ID)
		}
		if _, exists := r.tracks[t.ID]; exists {
			return nil, errors.Wrapf(ErrDuplicateTrack, "track %q", t.ID)
		}
		r.order = append(r.order, t.ID)
		r.tracks[t.ID] = t
	}

	return r, nil
}

// Lookup returns the track registered under id.
func (r *TrackRegistry) Lookup(id string) (track.Track, bool) {
	t, ok := r.tracks[id]
	return t, ok
}

// Has reports whether id is registered.
func (r *TrackRegistry) Has(id string) bool {
	_, ok := r.tracks[id]
	return ok
}

// Tracks returns a copy of all tracks in registration order.
func (r *TrackRegistry) Tracks() []track.Track {
	result := make([]track.Track, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.tracks[id])
	}
	return result
}

// Len returns the number of registered tracks.
func (r *TrackRegistry) Len() int {
	return len(r.order)
}
