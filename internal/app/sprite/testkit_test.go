package sprite

import (
	"image"
	"image/color"
	"sort"
)

type fakeTextures map[string]image.Image

func (f fakeTextures) Keys() []string {
	out := make([]string, 0, len(f))
	for k := range f {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (f fakeTextures) Texture(key string) (image.Image, bool) {
	img, ok := f[key]
	return img, ok
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

var (
	grey  = color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	transparent = color.NRGBA{}
	blue  = color.NRGBA{R: 0, G: 0, B: 255, A: 255}
	red   = color.NRGBA{R: 255, G: 0, B: 0, A: 255}
)

// sprite16 is a 16×16 grey square with a transparent left column.
func sprite16() *image.NRGBA {
	img := solid(16, 16, grey)
	for y := 0; y < 16; y++ {
		img.SetNRGBA(0, y, transparent)
	}
	return img
}
