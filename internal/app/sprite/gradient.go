package sprite

import (
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"

	"gardensync/internal/domain/catalog"
)

// paint is a filter's source colour field: colour and coverage at a pixel.
type paint func(x, y int) (rgb, float64)

func parseHex(s string) (rgb, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return rgb{}, fmt.Errorf("bad colour %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return rgb{}, fmt.Errorf("bad colour %q: %w", s, err)
	}
	return rgb{
		r: float64(v>>16&0xff) / 255,
		g: float64(v>>8&0xff) / 255,
		b: float64(v&0xff) / 255,
	}, nil
}

// newPaint builds the colour field for one filter over bounds b. Tall plants
// use the filter's tall angle when it has one.
func newPaint(f catalog.Filter, b image.Rectangle, tall bool) (paint, error) {
	switch f.Kind {
	case catalog.FilterRainbow:
		stops := make([]rgb, 0, len(f.Stops))
		for _, s := range f.Stops {
			c, err := parseHex(s)
			if err != nil {
				return nil, err
			}
			stops = append(stops, c)
		}
		if len(stops) == 0 {
			return nil, fmt.Errorf("rainbow filter without stops")
		}
		angle := f.Angle
		if tall && f.TallAngle != 0 {
			angle = f.TallAngle
		}
		project := projector(b, angle)
		return func(x, y int) (rgb, float64) {
			return sampleStops(stops, project(x, y)), 1
		}, nil
	case catalog.FilterLinear:
		c, err := parseHex(f.Color)
		if err != nil {
			return nil, err
		}
		h := float64(b.Dy())
		return func(_, y int) (rgb, float64) {
			if h <= 1 {
				return c, 1
			}
			t := float64(y-b.Min.Y) / (h - 1)
			return c, 1 - 0.5*t
		}, nil
	default:
		c, err := parseHex(f.Color)
		if err != nil {
			return nil, err
		}
		return func(int, int) (rgb, float64) { return c, 1 }, nil
	}
}

// projector maps a pixel to its position in [0,1] along a gradient line
// through the centre of b at angle degrees (0 points right, 90 points down).
func projector(b image.Rectangle, angle float64) func(x, y int) float64 {
	rad := angle * math.Pi / 180
	dx, dy := math.Cos(rad), math.Sin(rad)
	w, h := float64(b.Dx()), float64(b.Dy())
	half := (math.Abs(dx)*w + math.Abs(dy)*h) / 2
	cx := float64(b.Min.X) + w/2
	cy := float64(b.Min.Y) + h/2
	return func(x, y int) float64 {
		if half == 0 {
			return 0
		}
		p := (float64(x)+0.5-cx)*dx + (float64(y)+0.5-cy)*dy
		return clamp01((p + half) / (2 * half))
	}
}

func sampleStops(stops []rgb, t float64) rgb {
	if len(stops) == 1 {
		return stops[0]
	}
	pos := t * float64(len(stops)-1)
	i := int(pos)
	if i >= len(stops)-1 {
		return stops[len(stops)-1]
	}
	return mix(stops[i], stops[i+1], pos-float64(i))
}
