package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"gardensync/internal/domain/garden"
)

//go:embed catalog.yaml
var embedded []byte

var ErrInvalidCatalog = errors.New("invalid catalog")

// Anchor is a position expressed as fractions of an icon's width and height.
type Anchor struct {
	X float64
	Y float64
}

func (a *Anchor) UnmarshalYAML(node *yaml.Node) error {
	var pair []float64
	if err := node.Decode(&pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("%w: anchor needs 2 values, got %d (line %d)", ErrInvalidCatalog, len(pair), node.Line)
	}
	a.X, a.Y = pair[0], pair[1]
	return nil
}

type Plant struct {
	Species     string   `yaml:"species"`
	SeedID      string   `yaml:"seedId"`
	PlantID     string   `yaml:"plantId"`
	CropID      string   `yaml:"cropId"`
	SlotOffsets []Anchor `yaml:"slotOffsets"`
	Tall        bool     `yaml:"tall"`
	BadgeAnchor *Anchor  `yaml:"badgeAnchor"`
}

// SlotCount is the number of harvest slots a mature plant of this species has.
func (p Plant) SlotCount() int {
	if len(p.SlotOffsets) == 0 {
		return 1
	}
	return len(p.SlotOffsets)
}

type FilterKind string

const (
	FilterSolid   FilterKind = "solid"
	FilterRainbow FilterKind = "rainbow"
	FilterLinear  FilterKind = "linear"
)

type Filter struct {
	Kind      FilterKind `yaml:"kind"`
	Color     string     `yaml:"color"`
	Alpha     float64    `yaml:"alpha"`
	Angle     float64    `yaml:"angle"`
	TallAngle float64    `yaml:"tallAngle"`
	Stops     []string   `yaml:"stops"`
	Blend     []string   `yaml:"blend"`
}

type Group string

const (
	GroupGold    Group = "gold"
	GroupRainbow Group = "rainbow"
	GroupWarm    Group = "warm"
	GroupCold    Group = "cold"
)

type Mutation struct {
	Name           string   `yaml:"name"`
	Group          Group    `yaml:"group"`
	Badge          string   `yaml:"badge"`
	Overlay        string   `yaml:"overlay"`
	OverlayAliases []string `yaml:"overlayAliases"`
	Filter         Filter   `yaml:"filter"`
}

// HasOverlay reports whether the mutation draws full-tile overlay art.
func (m Mutation) HasOverlay() bool {
	return strings.TrimSpace(m.Overlay) != ""
}

// OverlayKeys lists texture keys to try for the overlay asset, most specific
// first.
func (m Mutation) OverlayKeys() []string {
	if !m.HasOverlay() {
		return nil
	}
	keys := []string{m.Overlay}
	for _, alias := range m.OverlayAliases {
		keys = append(keys, alias, alias+"Overlay")
	}
	return keys
}

type Decor struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type Egg struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type document struct {
	Plants    []Plant    `yaml:"plants"`
	Mutations []Mutation `yaml:"mutations"`
	Decor     []Decor    `yaml:"decor"`
	Eggs      []Egg      `yaml:"eggs"`
}

// Catalog is read-only reference data. Lookups are case-insensitive.
type Catalog struct {
	plants    map[string]Plant
	mutations map[string]Mutation
	decor     map[string]Decor
	eggs      map[string]Egg
}

func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	c := &Catalog{
		plants:    make(map[string]Plant, len(doc.Plants)),
		mutations: make(map[string]Mutation, len(doc.Mutations)),
		decor:     make(map[string]Decor, len(doc.Decor)),
		eggs:      make(map[string]Egg, len(doc.Eggs)),
	}
	for _, p := range doc.Plants {
		key := normKey(p.Species)
		if key == "" {
			return nil, fmt.Errorf("%w: plant without species", ErrInvalidCatalog)
		}
		if _, dup := c.plants[key]; dup {
			return nil, fmt.Errorf("%w: duplicate plant %q", ErrInvalidCatalog, p.Species)
		}
		c.plants[key] = p
	}
	for _, m := range doc.Mutations {
		name := garden.NormalizeMutation(m.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: mutation without name", ErrInvalidCatalog)
		}
		switch m.Group {
		case GroupGold, GroupRainbow, GroupWarm, GroupCold:
		default:
			return nil, fmt.Errorf("%w: mutation %q has unknown group %q", ErrInvalidCatalog, m.Name, m.Group)
		}
		m.Name = name
		c.mutations[normKey(name)] = m
	}
	for _, d := range doc.Decor {
		if normKey(d.ID) == "" {
			return nil, fmt.Errorf("%w: decor without id", ErrInvalidCatalog)
		}
		c.decor[normKey(d.ID)] = d
	}
	for _, e := range doc.Eggs {
		if normKey(e.ID) == "" {
			return nil, fmt.Errorf("%w: egg without id", ErrInvalidCatalog)
		}
		c.eggs[normKey(e.ID)] = e
	}
	return c, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(embedded)
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

func normKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (c *Catalog) Plant(species string) (Plant, bool) {
	p, ok := c.plants[normKey(species)]
	return p, ok
}

// PlantByItem resolves a species from any of its seed, plant or crop ids.
func (c *Catalog) PlantByItem(id string) (Plant, bool) {
	key := normKey(id)
	if p, ok := c.plants[key]; ok {
		return p, true
	}
	for _, p := range c.plants {
		if normKey(p.SeedID) == key || normKey(p.PlantID) == key || normKey(p.CropID) == key {
			return p, true
		}
	}
	return Plant{}, false
}

func (c *Catalog) IsTall(species string) bool {
	p, ok := c.Plant(species)
	return ok && p.Tall
}

// Mutation looks a mutation up by any accepted spelling.
func (c *Catalog) Mutation(name string) (Mutation, bool) {
	m, ok := c.mutations[normKey(garden.NormalizeMutation(name))]
	return m, ok
}

func (c *Catalog) Decor(id string) (Decor, bool) {
	d, ok := c.decor[normKey(id)]
	return d, ok
}

func (c *Catalog) Egg(id string) (Egg, bool) {
	e, ok := c.eggs[normKey(id)]
	return e, ok
}

func (c *Catalog) Species() []string {
	out := make([]string, 0, len(c.plants))
	for _, p := range c.plants {
		out = append(out, p.Species)
	}
	sort.Strings(out)
	return out
}

func (c *Catalog) DecorIDs() []string {
	out := make([]string, 0, len(c.decor))
	for _, d := range c.decor {
		out = append(out, d.ID)
	}
	sort.Strings(out)
	return out
}

func (c *Catalog) MutationNames() []string {
	out := make([]string, 0, len(c.mutations))
	for _, m := range c.mutations {
		out = append(out, m.Name)
	}
	sort.Strings(out)
	return out
}
