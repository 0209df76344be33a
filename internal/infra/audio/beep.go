package audio

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
	zlog "github.com/rs/zerolog/log"
)

func init() {
	Register("beep", "Decodes mp3/wav/flac and plays through the default sound card", func(settings map[string]any) (Output, error) {
		var s BeepSettings
		if err := decodeSettings(settings, &s); err != nil {
			return nil, err
		}
		return NewBeepOutput(s)
	})
}

// ErrUnsupportedFormat is returned for files beep cannot decode.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// BeepSettings configures the speaker.
type BeepSettings struct {
	SampleRate      int `mapstructure:"sample_rate" default:"44100" validate:"gte=8000,lte=192000"`
	BufferMs        int `mapstructure:"buffer_ms" default:"100" validate:"gte=10,lte=2000"`
	ResampleQuality int `mapstructure:"resample_quality" default:"4" validate:"gte=1,lte=64"`
}

// The speaker is process-wide and can only be initialized once.
var (
	speakerOnce sync.Once
	speakerErr  error
)

// BeepOutput plays files through the beep speaker.
type BeepOutput struct {
	mu         sync.Mutex
	settings   BeepSettings
	sampleRate beep.SampleRate
	current    beep.StreamSeekCloser
	path       string
}

// NewBeepOutput initializes the speaker and returns an output using it.
func NewBeepOutput(s BeepSettings) (*BeepOutput, error) {
	sr := beep.SampleRate(s.SampleRate)

	speakerOnce.Do(func() {
		speakerErr = speaker.Init(sr, sr.N(time.Duration(s.BufferMs)*time.Millisecond))
	})
	if speakerErr != nil {
		return nil, errors.Wrap(speakerErr, "failed to initialize speaker")
	}

	zlog.Info().Msgf("audio(beep): speaker ready: sample_rate=%d buffer_ms=%d", s.SampleRate, s.BufferMs)

	return &BeepOutput{
		settings:   s,
		sampleRate: sr,
	}, nil
}

// LoadAndLoop decodes path and loops it forever, replacing the current loop.
func (o *BeepOutput) LoadAndLoop(path string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	// Silence first so a failed load never leaves the old loop audible.
	speaker.Clear()
	o.closeCurrentLocked()

	streamer, format, err := decodeFile(path)
	if err != nil {
		return err
	}

	var s beep.Streamer = beep.Loop(-1, streamer)
	if format.SampleRate != o.sampleRate {
		s = beep.Resample(o.settings.ResampleQuality, format.SampleRate, o.sampleRate, s)
	}

	o.current = streamer
	o.path = path
	speaker.Play(s)

	zlog.Debug().Msgf("audio(beep): looping %s (rate=%d channels=%d)", path, format.SampleRate, format.NumChannels)
	return nil
}

// Stop silences the speaker and releases the decoder.
func (o *BeepOutput) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	speaker.Clear()
	return o.closeCurrentLocked()
}

// Close stops playback. The speaker stays initialized for the process.
func (o *BeepOutput) Close() error {
	return o.Stop()
}

func (o *BeepOutput) closeCurrentLocked() error {
	if o.current == nil {
		return nil
	}
	err := o.current.Close()
	o.current = nil
	o.path = ""
	if err != nil {
		return errors.Wrap(err, "failed to close decoder")
	}
	return nil
}

// decodeFile opens path and picks a decoder from the file extension.
func decodeFile(path string) (beep.StreamSeekCloser, beep.Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp3", ".wav", ".flac":
	default:
		return nil, beep.Format{}, errors.Wrapf(ErrUnsupportedFormat, "%q", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, errors.Wrap(err, "failed to open audio file")
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	}
	if err != nil {
		_ = f.Close()
		return nil, beep.Format{}, errors.Wrapf(err, "failed to decode %s", path)
	}

	return streamer, format, nil
}
