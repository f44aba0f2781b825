package garden

import (
	"errors"
	"strings"
)

type Plane string

const (
	PlaneDirt      Plane = "Dirt"
	PlaneBoardwalk Plane = "Boardwalk"
)

// Planes lists tile planes in reconciliation order.
func Planes() []Plane {
	return []Plane{PlaneDirt, PlaneBoardwalk}
}

func (p Plane) Valid() bool {
	return p == PlaneDirt || p == PlaneBoardwalk
}

func ParsePlane(raw string) (Plane, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "dirt":
		return PlaneDirt, true
	case "boardwalk":
		return PlaneBoardwalk, true
	default:
		return "", false
	}
}

type ObjectType string

const (
	ObjectPlant ObjectType = "plant"
	ObjectDecor ObjectType = "decor"
	ObjectEgg   ObjectType = "egg"
)

func (t ObjectType) Known() bool {
	return t == ObjectPlant || t == ObjectDecor || t == ObjectEgg
}

type Rotation int

func (r Rotation) Valid() bool {
	return r == 0 || r == 90 || r == 180 || r == 270
}

type PlantSlot struct {
	StartTime   int64    `json:"startTime"`
	EndTime     int64    `json:"endTime"`
	TargetScale float64  `json:"targetScale"`
	Mutations   []string `json:"mutations"`
}

// TileObject is the union of everything that can sit on a tile. Type selects
// which of the remaining fields are meaningful; an empty tile is represented by
// the absence of a TileObject.
type TileObject struct {
	Type ObjectType `json:"objectType"`

	Species   string      `json:"species,omitempty"`
	PlantedAt int64       `json:"plantedAt,omitempty"`
	MaturedAt int64       `json:"maturedAt,omitempty"`
	Slots     []PlantSlot `json:"slots,omitempty"`
	// DesiredMutation is draft-only intent: which mutation variant to source.
	DesiredMutation string `json:"glcMutation,omitempty"`

	DecorID  string   `json:"decorId,omitempty"`
	Rotation Rotation `json:"rotation,omitempty"`

	EggID string `json:"eggId,omitempty"`
}

var ErrInvalidTileObject = errors.New("invalid tile object")

func NewPlant(species string, mutation string) TileObject {
	return TileObject{Type: ObjectPlant, Species: species, DesiredMutation: mutation}
}

func NewDecor(decorID string, rotation Rotation) TileObject {
	return TileObject{Type: ObjectDecor, DecorID: decorID, Rotation: rotation}
}

func NewEgg(eggID string) TileObject {
	return TileObject{Type: ObjectEgg, EggID: eggID}
}

func (o TileObject) Validate() error {
	switch o.Type {
	case ObjectPlant:
		if strings.TrimSpace(o.Species) == "" {
			return ErrInvalidTileObject
		}
	case ObjectDecor:
		if strings.TrimSpace(o.DecorID) == "" || !o.Rotation.Valid() {
			return ErrInvalidTileObject
		}
	case ObjectEgg:
		if strings.TrimSpace(o.EggID) == "" {
			return ErrInvalidTileObject
		}
	default:
		return ErrInvalidTileObject
	}
	return nil
}

func (o TileObject) IsPlant() bool { return o.Type == ObjectPlant }
func (o TileObject) IsDecor() bool { return o.Type == ObjectDecor }
func (o TileObject) IsEgg() bool   { return o.Type == ObjectEgg }

// Mutations returns the distinct normalized mutations carried by any slot.
func (o TileObject) Mutations() []string {
	seen := map[string]bool{}
	out := []string{}
	for _, slot := range o.Slots {
		for _, m := range slot.Mutations {
			n := NormalizeMutation(m)
			if n == "" || seen[n] {
				continue
			}
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

func (o TileObject) HasMutation(mutation string) bool {
	want := NormalizeMutation(mutation)
	if want == "" {
		return true
	}
	for _, m := range o.Mutations() {
		if m == want {
			return true
		}
	}
	return false
}

// Identity is the type-specific identity used for grouping and equivalence.
func (o TileObject) Identity() string {
	switch o.Type {
	case ObjectPlant:
		return o.Species
	case ObjectDecor:
		return o.DecorID
	case ObjectEgg:
		return o.EggID
	default:
		return ""
	}
}

// Equivalent reports whether live already satisfies target: same discriminant,
// same identity and, for plants with a desired mutation, a slot carrying it.
func Equivalent(live, target TileObject) bool {
	if live.Type != target.Type {
		return false
	}
	switch target.Type {
	case ObjectPlant:
		if !strings.EqualFold(live.Species, target.Species) {
			return false
		}
		if m := NormalizeMutation(target.DesiredMutation); m != "" {
			return live.HasMutation(m)
		}
		return true
	case ObjectDecor:
		return live.DecorID == target.DecorID
	case ObjectEgg:
		return live.EggID == target.EggID
	default:
		return false
	}
}

func (o TileObject) Clone() TileObject {
	out := o
	if o.Slots != nil {
		out.Slots = make([]PlantSlot, len(o.Slots))
		for i, s := range o.Slots {
			s.Mutations = append([]string(nil), s.Mutations...)
			out.Slots[i] = s
		}
	}
	return out
}
