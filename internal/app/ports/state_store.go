package ports

import (
	"context"
	"encoding/json"
)

// Atom labels read and written by the reconciliation engine.
const (
	LabelPlayer    = "player"
	LabelUserSlots = "userSlots"
	LabelMap       = "map"
	LabelInventory = "myInventory"
)

// StateStore is the host game's shared reactive state. Values are opaque JSON;
// a read is only valid until the next suspension point.
type StateStore interface {
	Select(ctx context.Context, label string) (json.RawMessage, error)
	Subscribe(label string, fn func(json.RawMessage)) (unsubscribe func())
	Set(ctx context.Context, label string, value json.RawMessage) error
}
