package ports

import (
	"context"
	"encoding/json"
)

// KeyValueStore holds JSON documents under namespaced keys. Get returns
// ErrNotFound for a missing key.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Set(ctx context.Context, key string, value json.RawMessage) error
	Delete(ctx context.Context, key string) error
}
