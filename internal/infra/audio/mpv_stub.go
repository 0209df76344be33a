//go:build !libmpv

package audio

import "github.com/cockroachdb/errors"

func init() {
	Register("mpv", "Plays through libmpv (requires -tags libmpv)", func(map[string]any) (Output, error) {
		return nil, errors.New("libmpv backend is not enabled; build with -tags libmpv")
	})
}
