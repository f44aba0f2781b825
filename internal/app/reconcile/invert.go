package reconcile

import (
	"context"
	"fmt"

	"gardensync/internal/app/ports"
	"gardensync/internal/domain/garden"
)

// Invert mirrors one plane of g using the attached player's slot geometry.
func (u UseCase) Invert(ctx context.Context, g garden.Garden, plane garden.Plane) (garden.Garden, error) {
	if !plane.Valid() {
		return garden.Garden{}, fmt.Errorf("%w: unknown plane %q", ErrInvalidDraft, plane)
	}
	if u.Store == nil {
		return garden.Garden{}, ports.ErrNotReady
	}
	playerID, err := u.readPlayerID(ctx)
	if err != nil {
		return garden.Garden{}, err
	}
	slots, err := u.readSlots(ctx)
	if err != nil {
		return garden.Garden{}, err
	}
	slot, ok := garden.FindSlot(slots, playerID)
	if !ok {
		return garden.Garden{}, ports.ErrNotReady
	}
	geom, err := u.readGeometry(ctx, slot)
	if err != nil {
		return garden.Garden{}, err
	}
	return garden.Invert(g, plane, geom), nil
}
