// Package track provides the Track domain entity.
package track

import (
	"path/filepath"
	"strings"
	"time"
)

// Track represents a named audio file that can be looped by the player.
type Track struct {
	ID       string        // Identifier used in URLs (e.g. "audio1")
	Path     string        // Audio file path on the local filesystem
	Title    string        // Title from file tags (empty if unknown)
	Duration time.Duration // Length from file properties (0 if unknown)
}

// DisplayName returns the title if known, otherwise the file name without
// its extension, otherwise the ID.
func (t *Track) DisplayName() string {
	if t.Title != "" {
		return t.Title
	}
	if t.Path != "" {
		base := filepath.Base(t.Path)
		if name := strings.TrimSuffix(base, filepath.Ext(base)); name != "" && name != "." {
			return name
		}
	}
	return t.ID
}

// Format returns the lowercase file extension without the dot ("mp3", "wav").
func (t *Track) Format() string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(t.Path), "."))
}
