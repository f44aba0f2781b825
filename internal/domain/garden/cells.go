package garden

// Wire shapes of the state-store cells the engine reads.

type PlayerCell struct {
	ID string `json:"id"`
}

type SlotData struct {
	Garden Garden `json:"garden"`
}

// UserSlot is one entry of the per-player-slot world state; empty slots are
// null on the wire.
type UserSlot struct {
	PlayerID string   `json:"playerId"`
	Data     SlotData `json:"data"`
}

// FindSlot returns the slot index owned by playerID.
func FindSlot(slots []*UserSlot, playerID string) (int, bool) {
	if playerID == "" {
		return 0, false
	}
	for i, s := range slots {
		if s != nil && s.PlayerID == playerID {
			return i, true
		}
	}
	return 0, false
}
