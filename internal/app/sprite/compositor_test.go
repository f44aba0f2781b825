package sprite

import (
	"errors"
	"image"
	"testing"

	"gardensync/internal/domain/catalog"
	domain "gardensync/internal/domain/sprite"
)

func TestCompositeGoldTintKeepsAlpha(t *testing.T) {
	cat := catalog.Default()
	c := Compositor{Textures: fakeTextures{}, Catalog: cat}
	out, err := c.Composite(sprite16(), "Carrot", domain.Select([]string{"Gold"}, cat))
	if err != nil {
		t.Fatalf("composite: %v", err)
	}
	if out.Bounds() != image.Rect(0, 0, 16, 16) {
		t.Fatalf("surface must match base size, got %v", out.Bounds())
	}
	if px := out.NRGBAAt(0, 4); px.A != 0 {
		t.Fatalf("transparent pixels must stay transparent, got %+v", px)
	}
	px := out.NRGBAAt(8, 4)
	if px.A != 255 {
		t.Fatalf("alpha changed: %+v", px)
	}
	if int(px.R) < int(px.B)+50 {
		t.Fatalf("expected a gold tint, got %+v", px)
	}
}

func TestCompositeDoesNotMutateBase(t *testing.T) {
	cat := catalog.Default()
	base := sprite16()
	c := Compositor{Catalog: cat}
	if _, err := c.Composite(base, "Carrot", domain.Select([]string{"Rainbow"}, cat)); err != nil {
		t.Fatalf("composite: %v", err)
	}
	if base.NRGBAAt(8, 8) != grey {
		t.Fatalf("base texture modified: %+v", base.NRGBAAt(8, 8))
	}
}

func TestCompositeOverlayUsesAlias(t *testing.T) {
	cat := catalog.Default()
	c := Compositor{Textures: fakeTextures{"Ice": solid(4, 4, red)}, Catalog: cat}
	out, err := c.Composite(sprite16(), "Carrot", domain.Select([]string{"frozen"}, cat))
	if err != nil {
		t.Fatalf("composite: %v", err)
	}
	if px := out.NRGBAAt(8, 2); px != red {
		t.Fatalf("overlay should cover the sprite, got %+v", px)
	}
}

func TestCompositeBadgeAtAnchor(t *testing.T) {
	cat := catalog.Default()
	c := Compositor{Textures: fakeTextures{"GoldBadge": solid(4, 4, blue)}, Catalog: cat}
	out, err := c.Composite(sprite16(), "Carrot", domain.Select([]string{"Gold"}, cat))
	if err != nil {
		t.Fatalf("composite: %v", err)
	}
	if px := out.NRGBAAt(8, 13); px.B < 200 || px.R > 40 {
		t.Fatalf("badge should be drawn near the bottom anchor, got %+v", px)
	}
	if px := out.NRGBAAt(8, 2); px.B > 100 {
		t.Fatalf("badge leaked to the top, got %+v", px)
	}
}

func TestCompositeEmptyBase(t *testing.T) {
	c := Compositor{Catalog: catalog.Default()}
	if _, err := c.Composite(image.NewNRGBA(image.Rect(0, 0, 0, 0)), "Carrot", domain.Selection{}); !errors.Is(err, ErrEmptyTexture) {
		t.Fatalf("expected ErrEmptyTexture, got %v", err)
	}
}

func TestCompositeFallbackBlend(t *testing.T) {
	cat := catalog.Default()
	c := Compositor{Catalog: cat, Supported: []BlendMode{BlendSourceAtop}}
	out, err := c.Composite(sprite16(), "Carrot", domain.Select([]string{"Gold"}, cat))
	if err != nil {
		t.Fatalf("composite: %v", err)
	}
	// source-atop at 0.7 over grey: 0.502 + 0.7*(1-0.502)
	if px := out.NRGBAAt(8, 4); px.R < 200 || px.B > 50 {
		t.Fatalf("unexpected source-atop result %+v", px)
	}
}
