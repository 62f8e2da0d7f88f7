package recipe

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUnsupportedPlatform is returned when the host cannot build a native package.
var ErrUnsupportedPlatform = errors.New("package cannot be built on this platform")

// Native builds MEX code on the host and publishes under the host platform tag.
type Native struct {
	*Standard
}

// NewNative creates the host-bound recipe.
func NewNative(def *Definition) *Native {
	return &Native{Standard: NewStandard(def)}
}

// ResolvePlatform accepts hosts listed in the definition's platforms.
func (n *Native) ResolvePlatform(host string) (string, error) {
	if len(n.def.Platforms) > 0 && !slices.Contains(n.def.Platforms, host) {
		return "", fmt.Errorf("%s on %s: %w", n.def.Name, host, ErrUnsupportedPlatform)
	}

	return host, nil
}
