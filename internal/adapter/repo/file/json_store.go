package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gardensync/internal/app/ports"
)

// JSONStore persists documents in a single JSON file keyed by document key.
type JSONStore struct {
	filePath string
	mutex    sync.RWMutex
	txMutex  sync.Mutex
	data     map[string]json.RawMessage
}

func NewJSONStore(filePath string) (*JSONStore, error) {
	store := &JSONStore{
		filePath: filePath,
		data:     make(map[string]json.RawMessage),
	}
	if _, err := os.Stat(filePath); err == nil {
		if err := store.loadFromFile(); err != nil {
			return nil, fmt.Errorf("load json store: %w", err)
		}
		return store, nil
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, fmt.Errorf("create json store dir: %w", err)
	}
	store.mutex.Lock()
	defer store.mutex.Unlock()
	if err := store.saveLocked(); err != nil {
		return nil, fmt.Errorf("create json store file: %w", err)
	}
	return store, nil
}

func (js *JSONStore) loadFromFile() error {
	js.mutex.Lock()
	defer js.mutex.Unlock()
	raw, err := os.ReadFile(js.filePath)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, &js.data)
}

// saveLocked writes through a temp file and rename so a crash never leaves a
// truncated store behind.
func (js *JSONStore) saveLocked() error {
	raw, err := json.MarshalIndent(js.data, "", "  ")
	if err != nil {
		return err
	}
	tmp := js.filePath + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, js.filePath)
}

func (js *JSONStore) Get(_ context.Context, key string) (json.RawMessage, error) {
	js.mutex.RLock()
	defer js.mutex.RUnlock()
	v, ok := js.data[key]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return append(json.RawMessage(nil), v...), nil
}

func (js *JSONStore) Set(_ context.Context, key string, value json.RawMessage) error {
	if !json.Valid(value) {
		return fmt.Errorf("json store: value for %q is not valid JSON", key)
	}
	js.mutex.Lock()
	defer js.mutex.Unlock()
	js.data[key] = append(json.RawMessage(nil), value...)
	return js.saveLocked()
}

func (js *JSONStore) Delete(_ context.Context, key string) error {
	js.mutex.Lock()
	defer js.mutex.Unlock()
	if _, ok := js.data[key]; !ok {
		return nil
	}
	delete(js.data, key)
	return js.saveLocked()
}

func (js *JSONStore) Path() string {
	return js.filePath
}
