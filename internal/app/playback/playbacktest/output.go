// Package playbacktest provides an in-memory playback.Output for tests.
package playbacktest

import "sync"

// RecordingOutput records the commands it receives instead of making sound.
type RecordingOutput struct {
	mu sync.Mutex

	loads   []string
	stops   int
	closes  int
	playing string

	// LoadErr, when set, is returned by LoadAndLoop.
	LoadErr error
	// StopErr, when set, is returned by Stop.
	StopErr error
}

// NewRecordingOutput creates an empty RecordingOutput.
func NewRecordingOutput() *RecordingOutput {
	return &RecordingOutput{}
}

// LoadAndLoop records a load command.
func (o *RecordingOutput) LoadAndLoop(path string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.loads = append(o.loads, path)
	if o.LoadErr != nil {
		o.playing = ""
		return o.LoadErr
	}
	o.playing = path
	return nil
}

// Stop records a stop command.
func (o *RecordingOutput) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.stops++
	o.playing = ""
	return o.StopErr
}

// Close records a close command and silences the output.
func (o *RecordingOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.closes++
	o.playing = ""
	return nil
}

// Closes returns the number of Close calls.
func (o *RecordingOutput) Closes() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closes
}

// Loads returns the paths passed to LoadAndLoop, in order.
func (o *RecordingOutput) Loads() []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	result := make([]string, len(o.loads))
	copy(result, o.loads)
	return result
}

// Stops returns the number of Stop calls.
func (o *RecordingOutput) Stops() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stops
}

// Playing returns the path that is looping, or "" when silent.
func (o *RecordingOutput) Playing() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.playing
}
