package sprite

import (
	"image"
	"math"

	"gardensync/internal/domain/catalog"
)

var DefaultBadgeAnchor = catalog.Anchor{X: 0.5, Y: 0.82}

const (
	badgeSizeFraction = 0.28
	tallBadgeBoost    = 1.35
	badgeSpacing      = 0.7
	minBadgeSize      = 4
)

type BadgePlacement struct {
	Mutation string
	Rect     image.Rectangle
}

// LayoutBadges places one badge per icon around the species anchor, spreading
// them horizontally so they do not fully overlap. Rectangles are in the pixel
// space of a w×h base texture.
func LayoutBadges(icons []string, species string, cat *catalog.Catalog, w, h int) []BadgePlacement {
	if len(icons) == 0 || w <= 0 || h <= 0 {
		return nil
	}
	anchor := DefaultBadgeAnchor
	tall := false
	if p, ok := cat.Plant(species); ok {
		tall = p.Tall
		if p.BadgeAnchor != nil {
			anchor = *p.BadgeAnchor
		}
	}
	size := badgeSizeFraction * math.Min(float64(w), float64(h))
	if tall {
		size *= tallBadgeBoost
	}
	if size < minBadgeSize {
		size = minBadgeSize
	}
	step := size * badgeSpacing
	cx := anchor.X * float64(w)
	cy := anchor.Y * float64(h)
	startX := cx - step*float64(len(icons)-1)/2

	out := make([]BadgePlacement, 0, len(icons))
	for i, name := range icons {
		x := startX + step*float64(i) - size/2
		y := cy - size/2
		r := image.Rect(
			int(math.Round(x)), int(math.Round(y)),
			int(math.Round(x+size)), int(math.Round(y+size)),
		)
		out = append(out, BadgePlacement{Mutation: name, Rect: r})
	}
	return out
}
