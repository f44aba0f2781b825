package garden

import (
	"encoding/json"
	"sort"
	"strconv"
)

// TileMap is a sparse plane: omitted indices are clear tiles.
type TileMap map[int]TileObject

// UnmarshalJSON drops null entries, non-integer keys, undecodable values and
// objects with an unknown discriminant. Known objects with bad fields are kept
// so callers can reject them with Validate.
func (m *TileMap) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(TileMap, len(raw))
	for key, value := range raw {
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 {
			continue
		}
		if len(value) == 0 || string(value) == "null" {
			continue
		}
		var obj TileObject
		if err := json.Unmarshal(value, &obj); err != nil {
			continue
		}
		if !obj.Type.Known() {
			continue
		}
		out[idx] = obj
	}
	*m = out
	return nil
}

// Indices returns the occupied indices in ascending order.
func (m TileMap) Indices() []int {
	out := make([]int, 0, len(m))
	for idx := range m {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

func (m TileMap) Clone() TileMap {
	out := make(TileMap, len(m))
	for idx, obj := range m {
		out[idx] = obj.Clone()
	}
	return out
}

type IndexSet map[int]struct{}

func NewIndexSet(indices ...int) IndexSet {
	s := IndexSet{}
	for _, idx := range indices {
		s[idx] = struct{}{}
	}
	return s
}

func (s IndexSet) Has(idx int) bool {
	_, ok := s[idx]
	return ok
}

func (s IndexSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for idx := range s {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

func (s IndexSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *IndexSet) UnmarshalJSON(data []byte) error {
	var list []int
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*s = NewIndexSet(list...)
	return nil
}

type IgnoredTiles struct {
	Dirt      IndexSet `json:"dirt"`
	Boardwalk IndexSet `json:"boardwalk"`
}

type Garden struct {
	TileObjects          TileMap      `json:"tileObjects"`
	BoardwalkTileObjects TileMap      `json:"boardwalkTileObjects"`
	IgnoredTiles         IgnoredTiles `json:"ignoredTiles"`
}

func NewGarden() Garden {
	return Garden{
		TileObjects:          TileMap{},
		BoardwalkTileObjects: TileMap{},
		IgnoredTiles:         IgnoredTiles{Dirt: IndexSet{}, Boardwalk: IndexSet{}},
	}
}

func (g Garden) Tiles(p Plane) TileMap {
	if p == PlaneBoardwalk {
		return g.BoardwalkTileObjects
	}
	return g.TileObjects
}

func (g *Garden) SetTiles(p Plane, tiles TileMap) {
	if p == PlaneBoardwalk {
		g.BoardwalkTileObjects = tiles
		return
	}
	g.TileObjects = tiles
}

func (g Garden) Tile(p Plane, idx int) (TileObject, bool) {
	obj, ok := g.Tiles(p)[idx]
	return obj, ok
}

func (g *Garden) Put(p Plane, idx int, obj TileObject) {
	tiles := g.Tiles(p)
	if tiles == nil {
		tiles = TileMap{}
		g.SetTiles(p, tiles)
	}
	tiles[idx] = obj
}

func (g *Garden) Clear(p Plane, idx int) {
	delete(g.Tiles(p), idx)
}

func (g Garden) Ignored(p Plane) IndexSet {
	if p == PlaneBoardwalk {
		return g.IgnoredTiles.Boardwalk
	}
	return g.IgnoredTiles.Dirt
}

func (g Garden) IsIgnored(p Plane, idx int) bool {
	return g.Ignored(p).Has(idx)
}

func (g Garden) Clone() Garden {
	out := Garden{
		TileObjects:          g.TileObjects.Clone(),
		BoardwalkTileObjects: g.BoardwalkTileObjects.Clone(),
		IgnoredTiles: IgnoredTiles{
			Dirt:      NewIndexSet(g.IgnoredTiles.Dirt.Sorted()...),
			Boardwalk: NewIndexSet(g.IgnoredTiles.Boardwalk.Sorted()...),
		},
	}
	return out
}

// Size counts occupied tiles on both planes.
func (g Garden) Size() int {
	return len(g.TileObjects) + len(g.BoardwalkTileObjects)
}
