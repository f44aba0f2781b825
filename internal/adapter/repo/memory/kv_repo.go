package memory

import (
	"context"
	"encoding/json"

	"gardensync/internal/app/ports"
)

type KeyValueRepo struct {
	store *Store
}

func NewKeyValueRepo(store *Store) KeyValueRepo {
	return KeyValueRepo{store: store}
}

func (r KeyValueRepo) Get(_ context.Context, key string) (json.RawMessage, error) {
	r.store.dataMu.RLock()
	defer r.store.dataMu.RUnlock()
	v, ok := r.store.docs[key]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return append(json.RawMessage(nil), v...), nil
}

func (r KeyValueRepo) Set(_ context.Context, key string, value json.RawMessage) error {
	r.store.dataMu.Lock()
	defer r.store.dataMu.Unlock()
	r.store.docs[key] = append(json.RawMessage(nil), value...)
	return nil
}

func (r KeyValueRepo) Delete(_ context.Context, key string) error {
	r.store.dataMu.Lock()
	defer r.store.dataMu.Unlock()
	delete(r.store.docs, key)
	return nil
}
