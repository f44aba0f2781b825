package garden

import "strings"

const DefaultInventoryCapacity = 100

type ItemType string

const (
	ItemSeed    ItemType = "Seed"
	ItemPlant   ItemType = "Plant"
	ItemDecor   ItemType = "Decor"
	ItemEgg     ItemType = "Egg"
	ItemTool    ItemType = "Tool"
	ItemProduce ItemType = "Produce"
)

type InventoryItem struct {
	ID       string      `json:"id"`
	ItemType ItemType    `json:"itemType"`
	Species  string      `json:"species,omitempty"`
	Slots    []PlantSlot `json:"slots,omitempty"`
	DecorID  string      `json:"decorId,omitempty"`
	EggID    string      `json:"eggId,omitempty"`
	ToolID   string      `json:"toolId,omitempty"`
	Quantity int         `json:"quantity,omitempty"`
}

func (it InventoryItem) quantity() int {
	if it.Quantity <= 0 {
		return 1
	}
	return it.Quantity
}

// AsTileObject views a plant item as the tile object it would become.
func (it InventoryItem) AsTileObject() TileObject {
	return TileObject{Type: ObjectPlant, Species: it.Species, Slots: it.Slots}
}

type Inventory struct {
	Items    []InventoryItem `json:"items"`
	Capacity int             `json:"capacity,omitempty"`
}

type Usage struct {
	UsedSlots int `json:"usedSlots"`
	Capacity  int `json:"capacity"`
	FreeSlots int `json:"freeSlots"`
}

// InventorySnapshot is a categorized view of one inventory read. It is only
// valid for the reconciliation pass that produced it.
type InventorySnapshot struct {
	Seeds            map[string]int  `json:"seeds"`
	Plants           map[string]int  `json:"plants"`
	PlantsByMutation map[string]int  `json:"plantsByMutation"`
	PlantItems       []InventoryItem `json:"-"`
	Decors           map[string]int  `json:"decors"`
	DecorStacks      map[string]int  `json:"-"`
	Eggs             map[string]int  `json:"eggs"`
	Tools            map[string]int  `json:"tools"`
	Usage            Usage           `json:"usage"`
}

func PlantMutationKey(species, mutation string) string {
	return species + "|" + NormalizeMutation(mutation)
}

func (inv Inventory) Snapshot() InventorySnapshot {
	s := InventorySnapshot{
		Seeds:            map[string]int{},
		Plants:           map[string]int{},
		PlantsByMutation: map[string]int{},
		Decors:           map[string]int{},
		DecorStacks:      map[string]int{},
		Eggs:             map[string]int{},
		Tools:            map[string]int{},
	}
	for _, it := range inv.Items {
		switch it.ItemType {
		case ItemSeed:
			s.Seeds[it.Species] += it.quantity()
		case ItemPlant:
			s.Plants[it.Species]++
			for _, m := range it.AsTileObject().Mutations() {
				s.PlantsByMutation[PlantMutationKey(it.Species, m)]++
			}
			s.PlantItems = append(s.PlantItems, it)
		case ItemDecor:
			s.Decors[it.DecorID] += it.quantity()
			s.DecorStacks[it.DecorID]++
		case ItemEgg:
			s.Eggs[it.EggID] += it.quantity()
		case ItemTool:
			s.Tools[it.ToolID] += it.quantity()
		}
	}
	capacity := inv.Capacity
	if capacity <= 0 {
		capacity = DefaultInventoryCapacity
	}
	used := len(inv.Items)
	free := capacity - used
	if free < 0 {
		free = 0
	}
	s.Usage = Usage{UsedSlots: used, Capacity: capacity, FreeSlots: free}
	return s
}

// PlantCount returns how many inventory plants satisfy species and, when set,
// mutation.
func (s InventorySnapshot) PlantCount(species, mutation string) int {
	if NormalizeMutation(mutation) == "" {
		n := 0
		for sp, c := range s.Plants {
			if strings.EqualFold(sp, species) {
				n += c
			}
		}
		return n
	}
	n := 0
	for _, it := range s.PlantItems {
		if strings.EqualFold(it.Species, species) && it.AsTileObject().HasMutation(mutation) {
			n++
		}
	}
	return n
}
