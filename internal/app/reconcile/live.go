package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gardensync/internal/app/ports"
	"gardensync/internal/domain/garden"
)

type liveState struct {
	PlayerID  string
	Slot      int
	Garden    garden.Garden
	Inventory garden.Inventory
}

func (u UseCase) loadLive(ctx context.Context) (liveState, error) {
	if u.Store == nil {
		return liveState{}, ports.ErrNotReady
	}
	playerID, err := u.readPlayerID(ctx)
	if err != nil {
		return liveState{}, err
	}
	slots, err := u.readSlots(ctx)
	if err != nil {
		return liveState{}, err
	}
	idx, ok := garden.FindSlot(slots, playerID)
	if !ok {
		return liveState{}, fmt.Errorf("%w: player %q owns no garden slot", ports.ErrNotReady, playerID)
	}
	inv, err := u.readInventory(ctx)
	if err != nil {
		return liveState{}, err
	}
	g := slots[idx].Data.Garden
	if g.TileObjects == nil {
		g.TileObjects = garden.TileMap{}
	}
	if g.BoardwalkTileObjects == nil {
		g.BoardwalkTileObjects = garden.TileMap{}
	}
	return liveState{PlayerID: playerID, Slot: idx, Garden: g, Inventory: inv}, nil
}

func (u UseCase) selectCell(ctx context.Context, label string) (json.RawMessage, error) {
	raw, err := u.Store.Select(ctx, label)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s cell missing", ports.ErrNotReady, label)
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", label, err)
	}
	return raw, nil
}

func (u UseCase) readPlayerID(ctx context.Context) (string, error) {
	raw, err := u.selectCell(ctx, ports.LabelPlayer)
	if err != nil {
		return "", err
	}
	var player garden.PlayerCell
	if err := json.Unmarshal(raw, &player); err != nil || player.ID == "" {
		return "", fmt.Errorf("%w: no player identity", ports.ErrNotReady)
	}
	return player.ID, nil
}

func (u UseCase) readSlots(ctx context.Context) ([]*garden.UserSlot, error) {
	raw, err := u.selectCell(ctx, ports.LabelUserSlots)
	if err != nil {
		return nil, err
	}
	var slots []*garden.UserSlot
	if err := json.Unmarshal(raw, &slots); err != nil {
		return nil, fmt.Errorf("decode %s: %w", ports.LabelUserSlots, err)
	}
	return slots, nil
}

func (u UseCase) readInventory(ctx context.Context) (garden.Inventory, error) {
	raw, err := u.Store.Select(ctx, ports.LabelInventory)
	if errors.Is(err, ports.ErrNotFound) {
		return garden.Inventory{}, nil
	}
	if err != nil {
		return garden.Inventory{}, fmt.Errorf("select %s: %w", ports.LabelInventory, err)
	}
	var inv garden.Inventory
	if len(raw) == 0 || string(raw) == "null" {
		return inv, nil
	}
	if err := json.Unmarshal(raw, &inv); err != nil {
		return garden.Inventory{}, fmt.Errorf("decode %s: %w", ports.LabelInventory, err)
	}
	return inv, nil
}

func (u UseCase) readGeometry(ctx context.Context, slot int) (garden.SlotGeometry, error) {
	raw, err := u.selectCell(ctx, ports.LabelMap)
	if err != nil {
		return garden.SlotGeometry{}, err
	}
	var m garden.MapGeometry
	if err := json.Unmarshal(raw, &m); err != nil {
		return garden.SlotGeometry{}, fmt.Errorf("decode %s: %w", ports.LabelMap, err)
	}
	geom, ok := m.ForSlot(slot)
	if !ok {
		return garden.SlotGeometry{}, fmt.Errorf("%w: no geometry for slot %d", ports.ErrNotReady, slot)
	}
	return geom, nil
}

// writeGarden replaces the tile maps of one user slot in the local mirror,
// leaving every other field of the cell as the host wrote it.
func (u UseCase) writeGarden(ctx context.Context, slot int, g garden.Garden) error {
	raw, err := u.selectCell(ctx, ports.LabelUserSlots)
	if err != nil {
		return err
	}
	var slots []json.RawMessage
	if err := json.Unmarshal(raw, &slots); err != nil {
		return fmt.Errorf("decode %s: %w", ports.LabelUserSlots, err)
	}
	if slot < 0 || slot >= len(slots) {
		return fmt.Errorf("%w: slot %d out of range", ports.ErrNotReady, slot)
	}
	var entry map[string]json.RawMessage
	if err := json.Unmarshal(slots[slot], &entry); err != nil || entry == nil {
		return fmt.Errorf("%w: slot %d is empty", ports.ErrNotReady, slot)
	}
	data := map[string]json.RawMessage{}
	if rawData, ok := entry["data"]; ok && string(rawData) != "null" {
		if err := json.Unmarshal(rawData, &data); err != nil {
			return fmt.Errorf("decode slot data: %w", err)
		}
	}
	gardenCell := map[string]json.RawMessage{}
	if rawGarden, ok := data["garden"]; ok && string(rawGarden) != "null" {
		if err := json.Unmarshal(rawGarden, &gardenCell); err != nil {
			return fmt.Errorf("decode slot garden: %w", err)
		}
	}
	if gardenCell["tileObjects"], err = json.Marshal(stripDraftTags(g.TileObjects)); err != nil {
		return err
	}
	if gardenCell["boardwalkTileObjects"], err = json.Marshal(stripDraftTags(g.BoardwalkTileObjects)); err != nil {
		return err
	}
	if data["garden"], err = json.Marshal(gardenCell); err != nil {
		return err
	}
	if entry["data"], err = json.Marshal(data); err != nil {
		return err
	}
	if slots[slot], err = json.Marshal(entry); err != nil {
		return err
	}
	next, err := json.Marshal(slots)
	if err != nil {
		return err
	}
	return u.Store.Set(ctx, ports.LabelUserSlots, next)
}

func stripDraftTags(tiles garden.TileMap) garden.TileMap {
	out := make(garden.TileMap, len(tiles))
	for idx, obj := range tiles {
		obj = obj.Clone()
		obj.DesiredMutation = ""
		out[idx] = obj
	}
	return out
}
