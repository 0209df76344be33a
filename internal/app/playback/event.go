package playback

import "github.com/NestorKrdona/Audio-Play-Robot/internal/domain/track"

// EventType represents a playback event type.
type EventType int

const (
	EventTrackStarted   EventType = iota // A track started looping
	EventTrackStopped                    // Playback was stopped
	EventPlaybackFailed                  // The output rejected a load command
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackStarted:
		return "track_started"
	case EventTrackStopped:
		return "track_stopped"
	case EventPlaybackFailed:
		return "playback_failed"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type  EventType
	Track *track.Track // Track concerned by the event (nil when unknown)
	State State        // Playback state after the event
}
