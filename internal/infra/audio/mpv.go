//go:build libmpv

package audio

import (
	"sync"

	"github.com/cockroachdb/errors"
	mpv "github.com/gen2brain/go-mpv"
	zlog "github.com/rs/zerolog/log"
)

func init() {
	Register("mpv", "Plays through libmpv (any format mpv understands)", func(settings map[string]any) (Output, error) {
		var s MPVSettings
		if err := decodeSettings(settings, &s); err != nil {
			return nil, err
		}
		return NewMPVOutput(s)
	})
}

// MPVSettings configures the libmpv instance.
type MPVSettings struct {
	AudioDevice string `mapstructure:"audio_device" default:"auto"`
}

// MPVOutput plays files through an embedded libmpv instance.
type MPVOutput struct {
	mu        sync.Mutex
	client    *mpv.Mpv
	closeOnce sync.Once
}

// NewMPVOutput creates and initializes a libmpv instance without video.
func NewMPVOutput(s MPVSettings) (*MPVOutput, error) {
	client := mpv.New()
	if client == nil {
		return nil, errors.New("create libmpv instance")
	}

	setOptionString(client, "terminal", "no")
	setOptionString(client, "video", "no")
	setOptionString(client, "audio-display", "no")
	setOptionString(client, "idle", "yes")
	setOptionString(client, "audio-device", s.AudioDevice)

	if err := client.Initialize(); err != nil {
		client.TerminateDestroy()
		return nil, errors.Wrap(err, "initialize libmpv")
	}

	zlog.Info().Msgf("audio(mpv): ready: audio_device=%s", s.AudioDevice)
	return &MPVOutput{client: client}, nil
}

func (o *MPVOutput) LoadAndLoop(path string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.client.SetPropertyString("loop-file", "inf"); err != nil {
		return errors.Wrap(err, "set loop-file")
	}
	if err := o.client.Command([]string{"loadfile", path, "replace"}); err != nil {
		_ = o.client.Command([]string{"stop"})
		return errors.Wrapf(err, "load file %q", path)
	}
	if err := o.client.SetPropertyString("pause", "no"); err != nil {
		return errors.Wrap(err, "resume playback")
	}
	return nil
}

func (o *MPVOutput) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.client.Command([]string{"stop"}); err != nil {
		return errors.Wrap(err, "stop playback")
	}
	return nil
}

func (o *MPVOutput) Close() error {
	o.closeOnce.Do(func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.client.TerminateDestroy()
	})
	return nil
}

func setOptionString(client *mpv.Mpv, name, value string) {
	if err := client.SetOptionString(name, value); err != nil {
		zlog.Warn().Msgf("audio(mpv): failed to set option %s=%s: %v", name, value, err)
	}
}
