package sprite

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"

	"gardensync/internal/app/ports"
	"gardensync/internal/domain/catalog"
	domain "gardensync/internal/domain/sprite"
)

var ErrEmptyTexture = errors.New("empty base texture")

// Compositor renders mutation variants of a base texture onto an off-screen
// NRGBA surface the size of the base.
type Compositor struct {
	Textures ports.TextureSource
	Catalog  *catalog.Catalog
	// Supported lists the blend modes the surface can do. Nil means all.
	Supported []BlendMode
}

// Composite runs the fixed pipeline: base, colour filters, overlays, badges.
// Missing overlay or badge art is skipped.
func (c Compositor) Composite(base image.Image, species string, sel domain.Selection) (*image.NRGBA, error) {
	if base == nil || base.Bounds().Empty() {
		return nil, ErrEmptyTexture
	}
	b := base.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), base, b.Min, draw.Src)

	tall := c.Catalog.IsTall(species)
	for _, name := range sel.Filters {
		m, ok := c.Catalog.Mutation(name)
		if !ok {
			continue
		}
		if err := c.applyFilter(dst, m.Filter, tall); err != nil {
			return nil, fmt.Errorf("filter %s: %w", name, err)
		}
	}

	for _, name := range sel.Overlays {
		m, ok := c.Catalog.Mutation(name)
		if !ok {
			continue
		}
		if art, ok := c.lookup(m.OverlayKeys()...); ok {
			xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), art, art.Bounds(), xdraw.Over, nil)
		}
	}

	for _, placed := range domain.LayoutBadges(sel.Icons, species, c.Catalog, dst.Bounds().Dx(), dst.Bounds().Dy()) {
		m, ok := c.Catalog.Mutation(placed.Mutation)
		if !ok || m.Badge == "" {
			continue
		}
		if icon, ok := c.lookup(m.Badge); ok {
			xdraw.CatmullRom.Scale(dst, placed.Rect, icon, icon.Bounds(), xdraw.Over, nil)
		}
	}
	return dst, nil
}

// applyFilter paints the filter over every visible pixel, keeping the base's
// alpha so the tint never spills outside the sprite.
func (c Compositor) applyFilter(dst *image.NRGBA, f catalog.Filter, tall bool) error {
	p, err := newPaint(f, dst.Bounds(), tall)
	if err != nil {
		return err
	}
	mode := PickBlend(f.Blend, c.Supported)
	strength := f.Alpha
	if strength <= 0 {
		strength = 1
	}
	b := dst.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := dst.PixOffset(x, y)
			px := dst.Pix[i : i+4 : i+4]
			if px[3] == 0 {
				continue
			}
			d := rgb{float64(px[0]) / 255, float64(px[1]) / 255, float64(px[2]) / 255}
			src, coverage := p(x, y)
			out := mix(d, blend(mode, d, src), clamp01(strength*coverage))
			px[0] = uint8(clamp01(out.r)*255 + 0.5)
			px[1] = uint8(clamp01(out.g)*255 + 0.5)
			px[2] = uint8(clamp01(out.b)*255 + 0.5)
		}
	}
	return nil
}

func (c Compositor) lookup(keys ...string) (image.Image, bool) {
	if c.Textures == nil {
		return nil, false
	}
	for _, k := range keys {
		if img, ok := c.Textures.Texture(k); ok && img != nil && !img.Bounds().Empty() {
			return img, true
		}
	}
	return nil, false
}
