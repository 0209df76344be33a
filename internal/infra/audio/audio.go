// Package audio provides the audio outputs the playback controller drives.
package audio

import (
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// Output loads a file and loops it until told otherwise.
// LoadAndLoop replaces whatever is playing; on error the output is silent.
type Output interface {
	LoadAndLoop(path string) error
	Stop() error
	Close() error
}

// Factory creates an output from backend-specific settings.
type Factory func(settings map[string]any) (Output, error)

// Backend describes a registered output implementation.
type Backend struct {
	Name        string
	Description string
	Factory     Factory
}

// registry holds registered backends.
var registry = make(map[string]Backend)

// Register registers an output backend.
func Register(name, description string, factory Factory) {
	registry[name] = Backend{Name: name, Description: description, Factory: factory}
}

// Backends returns all registered backends sorted by name.
func Backends() []Backend {
	result := make([]Backend, 0, len(registry))
	for _, b := range registry {
		result = append(result, b)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// New creates the output registered under name.
func New(name string, settings map[string]any) (Output, error) {
	b, ok := registry[name]
	if !ok {
		return nil, errors.Newf("unsupported audio backend: %s", name)
	}

	out, err := b.Factory(settings)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create %s audio backend", name)
	}
	return out, nil
}

// decodeSettings decodes a free-form settings map into out, applies
// `default` tags and validates `validate` tags. Keys other backends use are
// ignored.
func decodeSettings(settings map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}

	if err := decoder.Decode(settings); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}

	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}

	if err := validator.New().Struct(out); err != nil {
		return errors.Wrap(err, "validation failed")
	}

	return nil
}
