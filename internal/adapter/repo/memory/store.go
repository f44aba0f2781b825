package memory

import (
	"encoding/json"
	"sync"
)

// Store keeps JSON documents in process memory. mu serializes transactions;
// dataMu guards the map itself.
type Store struct {
	mu     sync.Mutex
	dataMu sync.RWMutex
	docs   map[string]json.RawMessage
}

func NewStore() *Store {
	return &Store{
		docs: make(map[string]json.RawMessage),
	}
}

func (s *Store) SeedDocument(key string, value json.RawMessage) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.docs[key] = append(json.RawMessage(nil), value...)
}

func (s *Store) Keys() []string {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	out := make([]string, 0, len(s.docs))
	for k := range s.docs {
		out = append(out, k)
	}
	return out
}
