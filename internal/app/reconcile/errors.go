package reconcile

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidDraft  = errors.New("invalid draft garden")
	ErrBlockedTiles  = errors.New("target tiles are occupied")
	ErrPreviewClosed = errors.New("preview already rolled back")
)

// BlockedTilesError aborts an apply that would overwrite occupied tiles
// without consent.
type BlockedTilesError struct {
	Tiles []BlockedTile
}

func (e *BlockedTilesError) Error() string {
	parts := make([]string, 0, len(e.Tiles))
	for _, t := range e.Tiles {
		parts = append(parts, fmt.Sprintf("%s:%d(%s)", t.Plane, t.Index, t.Occupant.Identity()))
	}
	return fmt.Sprintf("%s: %s", ErrBlockedTiles.Error(), strings.Join(parts, ", "))
}

func (e *BlockedTilesError) Unwrap() error {
	return ErrBlockedTiles
}
