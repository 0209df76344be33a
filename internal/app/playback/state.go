// Package playback provides the controller that owns the currently looping track.
package playback

// State represents the playback state.
type State int

const (
	StateIdle    State = iota // Nothing is playing
	StatePlaying              // A track is looping
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}
