package reconcile

import (
	"time"

	"gardensync/internal/app/ports"
	"gardensync/internal/domain/garden"
)

type Config struct {
	MaxPasses       int
	ActionDelay     time.Duration
	PollInterval    time.Duration
	ConvergeTimeout time.Duration
	PreviewTTL      time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxPasses:       50,
		ActionDelay:     60 * time.Millisecond,
		PollInterval:    50 * time.Millisecond,
		ConvergeTimeout: 2 * time.Second,
		PreviewTTL:      5 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxPasses <= 0 {
		c.MaxPasses = d.MaxPasses
	}
	if c.ActionDelay < 0 {
		c.ActionDelay = 0
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.ConvergeTimeout <= 0 {
		c.ConvergeTimeout = d.ConvergeTimeout
	}
	if c.PreviewTTL <= 0 {
		c.PreviewTTL = d.PreviewTTL
	}
	return c
}

type Options struct {
	ClearTargetTiles bool `json:"clearTargetTiles"`
	IgnoreInventory  bool `json:"ignoreInventory"`
	// InventorySlotsAvailable caps how many pot/pickup actions one call may
	// issue. Nil means only the live free slots limit it.
	InventorySlotsAvailable *int `json:"inventorySlotsAvailable,omitempty"`
	AllowLocalFallback      bool `json:"allowLocalFallback"`
}

type BlockReason string

const (
	ReasonEgg         BlockReason = "egg"
	ReasonOccupied    BlockReason = "occupied"
	ReasonEggTarget   BlockReason = "egg_target"
	ReasonUnsupported BlockReason = "unsupported_plane"
)

type BlockedTile struct {
	Plane    garden.Plane      `json:"plane"`
	Index    int               `json:"index"`
	Occupant garden.TileObject `json:"occupant"`
	Target   garden.TileObject `json:"target"`
	Reason   BlockReason       `json:"reason"`
}

// Shortfall is a draft tile no source could be found for.
type Shortfall struct {
	Plane    garden.Plane      `json:"plane"`
	Index    int               `json:"index"`
	Kind     garden.ObjectType `json:"kind"`
	ID       string            `json:"id"`
	Mutation string            `json:"mutation,omitempty"`
}

type Result struct {
	Applied       bool            `json:"applied"`
	Passes        int             `json:"passes"`
	Actions       []garden.Intent `json:"actions"`
	Blocked       []BlockedTile   `json:"blocked"`
	Missing       []Shortfall     `json:"missing"`
	InventoryFull bool            `json:"inventoryFull"`
	Fallback      bool            `json:"fallback"`
	Notices       []ports.Notice  `json:"notices"`
}

type Requirement struct {
	Kind     garden.ObjectType `json:"kind"`
	ID       string            `json:"id"`
	Mutation string            `json:"mutation,omitempty"`
	Needed   int               `json:"needed"`
	Have     int               `json:"have"`
}

// Short is how many more the user has to obtain.
func (r Requirement) Short() int {
	if r.Have >= r.Needed {
		return 0
	}
	return r.Needed - r.Have
}
