package garden

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// MapGeometry is the world-map cell: the shared grid plus, per player slot, the
// local→global index tables of each plane.
type MapGeometry struct {
	Cols      int     `json:"cols"`
	Rows      int     `json:"rows"`
	Dirt      [][]int `json:"userSlotIdxAndDirtTileIdxToGlobalTileIdx"`
	Boardwalk [][]int `json:"userSlotIdxAndBoardwalkTileIdxToGlobalTileIdx"`
}

func (m MapGeometry) ForSlot(slot int) (SlotGeometry, bool) {
	if m.Cols <= 0 || slot < 0 || slot >= len(m.Dirt) {
		return SlotGeometry{}, false
	}
	var boardwalk []int
	if slot < len(m.Boardwalk) {
		boardwalk = m.Boardwalk[slot]
	}
	return NewSlotGeometry(m.Cols, m.Dirt[slot], boardwalk), true
}

// SlotGeometry maps one player's plane-local indices to world coordinates.
type SlotGeometry struct {
	Cols      int
	dirt      []int
	boardwalk []int
	dirtRev   map[int]int
	boardRev  map[int]int
}

func NewSlotGeometry(cols int, dirt, boardwalk []int) SlotGeometry {
	g := SlotGeometry{
		Cols:      cols,
		dirt:      append([]int(nil), dirt...),
		boardwalk: append([]int(nil), boardwalk...),
		dirtRev:   make(map[int]int, len(dirt)),
		boardRev:  make(map[int]int, len(boardwalk)),
	}
	for local, global := range g.dirt {
		g.dirtRev[global] = local
	}
	for local, global := range g.boardwalk {
		g.boardRev[global] = local
	}
	return g
}

// RectGeometry lays a plane out as a dense w×h block at the origin of a grid
// that is exactly w columns wide. Boardwalk tiles follow below the dirt block.
func RectGeometry(w, h, boardwalkTiles int) SlotGeometry {
	dirt := make([]int, 0, w*h)
	for i := 0; i < w*h; i++ {
		dirt = append(dirt, i)
	}
	boardwalk := make([]int, 0, boardwalkTiles)
	for i := 0; i < boardwalkTiles; i++ {
		boardwalk = append(boardwalk, w*h+i)
	}
	return NewSlotGeometry(w, dirt, boardwalk)
}

func (g SlotGeometry) table(p Plane) ([]int, map[int]int) {
	if p == PlaneBoardwalk {
		return g.boardwalk, g.boardRev
	}
	return g.dirt, g.dirtRev
}

func (g SlotGeometry) TileCount(p Plane) int {
	tbl, _ := g.table(p)
	return len(tbl)
}

func (g SlotGeometry) Global(p Plane, local int) (int, bool) {
	tbl, _ := g.table(p)
	if local < 0 || local >= len(tbl) {
		return 0, false
	}
	return tbl[local], true
}

func (g SlotGeometry) Coord(p Plane, local int) (Point, bool) {
	global, ok := g.Global(p, local)
	if !ok || g.Cols <= 0 {
		return Point{}, false
	}
	return Point{X: global % g.Cols, Y: global / g.Cols}, true
}

func (g SlotGeometry) Local(p Plane, pt Point) (int, bool) {
	if g.Cols <= 0 || pt.X < 0 || pt.X >= g.Cols || pt.Y < 0 {
		return 0, false
	}
	_, rev := g.table(p)
	local, ok := rev[pt.Y*g.Cols+pt.X]
	return local, ok
}

// RectMap builds a map cell for slots player slots, each laid out like
// RectGeometry and stacked below the previous one on a grid w columns wide.
func RectMap(slots, w, h, boardwalkTiles int) MapGeometry {
	boardRows := (boardwalkTiles + w - 1) / w
	perSlot := (h + boardRows) * w
	m := MapGeometry{Cols: w, Rows: slots * (h + boardRows)}
	rect := RectGeometry(w, h, boardwalkTiles)
	for s := 0; s < slots; s++ {
		offset := s * perSlot
		dirt := make([]int, len(rect.dirt))
		for i, g := range rect.dirt {
			dirt[i] = g + offset
		}
		boardwalk := make([]int, len(rect.boardwalk))
		for i, g := range rect.boardwalk {
			boardwalk[i] = g + offset
		}
		m.Dirt = append(m.Dirt, dirt)
		m.Boardwalk = append(m.Boardwalk, boardwalk)
	}
	return m
}
