package sprite

import (
	"math"
	"strings"
)

type BlendMode string

const (
	BlendSourceAtop BlendMode = "source-atop"
	BlendMultiply   BlendMode = "multiply"
	BlendOverlay    BlendMode = "overlay"
	BlendColor      BlendMode = "color"
)

// AllBlendModes is what the built-in rasterizer can do.
var AllBlendModes = []BlendMode{BlendColor, BlendOverlay, BlendMultiply, BlendSourceAtop}

// PickBlend returns the first preferred mode the surface supports, falling
// back to source-atop.
func PickBlend(preferred []string, supported []BlendMode) BlendMode {
	if supported == nil {
		supported = AllBlendModes
	}
	for _, raw := range preferred {
		want := BlendMode(strings.ToLower(strings.TrimSpace(raw)))
		for _, s := range supported {
			if s == want {
				return s
			}
		}
	}
	return BlendSourceAtop
}

// rgb is a straight-alpha colour with channels in [0,1].
type rgb struct{ r, g, b float64 }

func blend(mode BlendMode, dst, src rgb) rgb {
	switch mode {
	case BlendMultiply:
		return rgb{dst.r * src.r, dst.g * src.g, dst.b * src.b}
	case BlendOverlay:
		return rgb{overlayChannel(dst.r, src.r), overlayChannel(dst.g, src.g), overlayChannel(dst.b, src.b)}
	case BlendColor:
		return setLum(src, lum(dst))
	default:
		return src
	}
}

func overlayChannel(d, s float64) float64 {
	if d <= 0.5 {
		return 2 * d * s
	}
	return 1 - 2*(1-d)*(1-s)
}

func lum(c rgb) float64 {
	return 0.3*c.r + 0.59*c.g + 0.11*c.b
}

func setLum(c rgb, l float64) rgb {
	d := l - lum(c)
	return clipColor(rgb{c.r + d, c.g + d, c.b + d})
}

func clipColor(c rgb) rgb {
	l := lum(c)
	n := math.Min(c.r, math.Min(c.g, c.b))
	x := math.Max(c.r, math.Max(c.g, c.b))
	if n < 0 {
		c = rgb{l + (c.r-l)*l/(l-n), l + (c.g-l)*l/(l-n), l + (c.b-l)*l/(l-n)}
	}
	if x > 1 {
		c = rgb{l + (c.r-l)*(1-l)/(x-l), l + (c.g-l)*(1-l)/(x-l), l + (c.b-l)*(1-l)/(x-l)}
	}
	return c
}

func mix(a, b rgb, t float64) rgb {
	return rgb{a.r + (b.r-a.r)*t, a.g + (b.g-a.g)*t, a.b + (b.b-a.b)*t}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
