// Package imaging provides photo storage backends and transform effects.
package imaging

import (
	"fmt"
	"strings"
)

// Effect is a named photo transformation.
type Effect string

const (
	EffectGrayscale Effect = "grayscale"
	EffectSepia     Effect = "sepia"
	EffectPixelate  Effect = "pixelate"
)

// ParseEffect normalizes and validates an effect name.
func ParseEffect(s string) (Effect, error) {
	switch Effect(strings.ToLower(strings.TrimSpace(s))) {
	case EffectGrayscale:
		return EffectGrayscale, nil
	case EffectSepia:
		return EffectSepia, nil
	case EffectPixelate:
		return EffectPixelate, nil
	default:
		return "", fmt.Errorf("unknown effect %q (expected grayscale, sepia or pixelate)", s)
	}
}

func (e Effect) String() string {
	return string(e)
}
