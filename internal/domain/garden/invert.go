package garden

// Invert mirrors one plane left-to-right across the vertical centre line of
// the bounding box of its non-egg tiles. Eggs stay where they are and win any
// collision with a mirrored tile; tiles whose mirror position is not part of
// the plane are dropped. The other plane and the ignored sets are copied.
func Invert(g Garden, p Plane, geom SlotGeometry) Garden {
	out := g.Clone()
	src := g.Tiles(p)

	minX, maxX := 0, -1
	for idx, obj := range src {
		if obj.IsEgg() {
			continue
		}
		pt, ok := geom.Coord(p, idx)
		if !ok {
			continue
		}
		if maxX < minX {
			minX, maxX = pt.X, pt.X
			continue
		}
		if pt.X < minX {
			minX = pt.X
		}
		if pt.X > maxX {
			maxX = pt.X
		}
	}

	mirrored := TileMap{}
	for idx, obj := range src {
		if obj.IsEgg() {
			mirrored[idx] = obj.Clone()
		}
	}
	for _, idx := range src.Indices() {
		obj := src[idx]
		if obj.IsEgg() {
			continue
		}
		pt, ok := geom.Coord(p, idx)
		if !ok {
			continue
		}
		target, ok := geom.Local(p, Point{X: minX + maxX - pt.X, Y: pt.Y})
		if !ok {
			continue
		}
		if existing, taken := mirrored[target]; taken && existing.IsEgg() {
			continue
		}
		mirrored[target] = obj.Clone()
	}
	out.SetTiles(p, mirrored)
	return out
}
