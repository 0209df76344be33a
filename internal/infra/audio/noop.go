package audio

import (
	"sync"

	zlog "github.com/rs/zerolog/log"
)

func init() {
	// Settings are ignored so a config written for another backend still
	// starts with AUDIOPLAY_AUDIO_BACKEND=noop.
	Register("noop", "Logs playback commands without producing sound", func(map[string]any) (Output, error) {
		return NewNoopOutput(), nil
	})
}

// NoopOutput is an Output for hosts without an audio device.
type NoopOutput struct {
	mu      sync.Mutex
	playing string
}

// NewNoopOutput creates a NoopOutput.
func NewNoopOutput() *NoopOutput {
	return &NoopOutput{}
}

func (o *NoopOutput) LoadAndLoop(path string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.playing = path
	zlog.Info().Msgf("audio(noop): loop %s", path)
	return nil
}

func (o *NoopOutput) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.playing != "" {
		zlog.Info().Msgf("audio(noop): stop %s", o.playing)
	}
	o.playing = ""
	return nil
}

func (o *NoopOutput) Close() error {
	return o.Stop()
}

// Playing returns the path that would be looping.
func (o *NoopOutput) Playing() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.playing
}
