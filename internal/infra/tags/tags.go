// Package tags reads display metadata from audio files.
package tags

import (
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"go.senan.xyz/taglib"

	"github.com/NestorKrdona/Audio-Play-Robot/internal/domain/track"
)

// Metadata holds the tag values used for display.
type Metadata struct {
	Title    string
	Duration time.Duration
}

// ReadFunc reads metadata from the file at path.
type ReadFunc func(path string) (Metadata, error)

// Read reads the title tag and the length property with taglib.
func Read(path string) (Metadata, error) {
	if _, err := os.Stat(path); err != nil {
		return Metadata{}, errors.Wrap(err, "audio file not accessible")
	}

	var md Metadata

	values, err := taglib.ReadTags(path)
	if err != nil {
		return Metadata{}, errors.Wrapf(err, "failed to read tags from %s", path)
	}
	md.Title = firstTagValue(values, taglib.Title, "TITLE")

	properties, err := taglib.ReadProperties(path)
	if err != nil {
		return md, errors.Wrapf(err, "failed to read properties from %s", path)
	}
	md.Duration = properties.Length

	return md, nil
}

// Enrich fills Title and Duration on each track using read.
// Failures are logged and leave the track as configured.
func Enrich(tracks []track.Track, read ReadFunc) []track.Track {
	result := make([]track.Track, len(tracks))
	copy(result, tracks)

	for i := range result {
		md, err := read(result[i].Path)
		if err != nil {
			zlog.Warn().Msgf("tags: could not read metadata: id=%s path=%s err=%v", result[i].ID, result[i].Path, err)
		}
		if md.Title != "" {
			result[i].Title = md.Title
		}
		if md.Duration > 0 {
			result[i].Duration = md.Duration
		}
	}

	return result
}

func firstTagValue(values map[string][]string, keys ...string) string {
	for _, key := range keys {
		for _, v := range values[key] {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}
