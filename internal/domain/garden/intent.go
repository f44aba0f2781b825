package garden

import (
	"encoding/json"
	"fmt"
)

type IntentType string

const (
	IntentPotPlant         IntentType = "PotPlant"
	IntentPlantGardenPlant IntentType = "PlantGardenPlant"
	IntentPlaceDecor       IntentType = "PlaceDecor"
	IntentPickupDecor      IntentType = "PickupDecor"
)

// Intent is one fire-and-forget game command. Only the fields relevant to Type
// are put on the wire.
type Intent struct {
	Type     IntentType
	Plane    Plane
	Index    int
	ItemID   string
	DecorID  string
	Rotation Rotation
}

func PotPlant(slot int) Intent {
	return Intent{Type: IntentPotPlant, Plane: PlaneDirt, Index: slot}
}

func PlantGardenPlant(slot int, itemID string) Intent {
	return Intent{Type: IntentPlantGardenPlant, Plane: PlaneDirt, Index: slot, ItemID: itemID}
}

func PlaceDecor(plane Plane, idx int, decorID string, rotation Rotation) Intent {
	return Intent{Type: IntentPlaceDecor, Plane: plane, Index: idx, DecorID: decorID, Rotation: rotation}
}

func PickupDecor(plane Plane, idx int) Intent {
	return Intent{Type: IntentPickupDecor, Plane: plane, Index: idx}
}

// FreesInventory reports whether the intent moves a garden object into the
// inventory.
func (i Intent) FreesInventory() bool {
	return i.Type == IntentPotPlant || i.Type == IntentPickupDecor
}

func (i Intent) String() string {
	switch i.Type {
	case IntentPlantGardenPlant:
		return fmt.Sprintf("%s(slot=%d item=%s)", i.Type, i.Index, i.ItemID)
	case IntentPlaceDecor:
		return fmt.Sprintf("%s(%s:%d %s@%d)", i.Type, i.Plane, i.Index, i.DecorID, i.Rotation)
	case IntentPickupDecor:
		return fmt.Sprintf("%s(%s:%d)", i.Type, i.Plane, i.Index)
	default:
		return fmt.Sprintf("%s(slot=%d)", i.Type, i.Index)
	}
}

func (i Intent) MarshalJSON() ([]byte, error) {
	switch i.Type {
	case IntentPotPlant:
		return json.Marshal(struct {
			Type IntentType `json:"type"`
			Slot int        `json:"slot"`
		}{i.Type, i.Index})
	case IntentPlantGardenPlant:
		return json.Marshal(struct {
			Type   IntentType `json:"type"`
			Slot   int        `json:"slot"`
			ItemID string     `json:"itemId"`
		}{i.Type, i.Index, i.ItemID})
	case IntentPlaceDecor:
		return json.Marshal(struct {
			Type           IntentType `json:"type"`
			TileType       Plane      `json:"tileType"`
			LocalTileIndex int        `json:"localTileIndex"`
			DecorID        string     `json:"decorId"`
			Rotation       Rotation   `json:"rotation"`
		}{i.Type, i.Plane, i.Index, i.DecorID, i.Rotation})
	case IntentPickupDecor:
		return json.Marshal(struct {
			Type           IntentType `json:"type"`
			TileType       Plane      `json:"tileType"`
			LocalTileIndex int        `json:"localTileIndex"`
		}{i.Type, i.Plane, i.Index})
	default:
		return nil, fmt.Errorf("unknown intent type %q", i.Type)
	}
}

func (i *Intent) UnmarshalJSON(data []byte) error {
	var wire struct {
		Type           IntentType `json:"type"`
		Slot           *int       `json:"slot"`
		ItemID         string     `json:"itemId"`
		TileType       Plane      `json:"tileType"`
		LocalTileIndex *int       `json:"localTileIndex"`
		DecorID        string     `json:"decorId"`
		Rotation       Rotation   `json:"rotation"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	out := Intent{Type: wire.Type, ItemID: wire.ItemID, DecorID: wire.DecorID, Rotation: wire.Rotation}
	switch wire.Type {
	case IntentPotPlant, IntentPlantGardenPlant:
		if wire.Slot == nil {
			return fmt.Errorf("intent %s: missing slot", wire.Type)
		}
		out.Plane = PlaneDirt
		out.Index = *wire.Slot
	case IntentPlaceDecor, IntentPickupDecor:
		if wire.LocalTileIndex == nil || !wire.TileType.Valid() {
			return fmt.Errorf("intent %s: missing tile", wire.Type)
		}
		out.Plane = wire.TileType
		out.Index = *wire.LocalTileIndex
	default:
		return fmt.Errorf("unknown intent type %q", wire.Type)
	}
	*i = out
	return nil
}
