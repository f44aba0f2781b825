package ports

import (
	"context"

	"gardensync/internal/domain/garden"
)

// CommandChannel sends fire-and-forget intents to the authoritative server.
// A nil error only means the frame was written.
type CommandChannel interface {
	Send(ctx context.Context, intent garden.Intent) error
}
