package atoms

import (
	"context"
	"encoding/json"
	"sync"

	"gardensync/internal/app/ports"
)

// Store is an in-process StateStore. It backs the local run mode, previews
// when no game is attached, and tests.
type Store struct {
	mu     sync.RWMutex
	values map[string]json.RawMessage
	subs   map[string]map[int]func(json.RawMessage)
	nextID int
}

func NewStore() *Store {
	return &Store{
		values: make(map[string]json.RawMessage),
		subs:   make(map[string]map[int]func(json.RawMessage)),
	}
}

// Seed marshals v into the cell without going through a context.
func (s *Store) Seed(label string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(context.Background(), label, raw)
}

func (s *Store) Select(_ context.Context, label string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[label]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return clone(v), nil
}

func (s *Store) Set(_ context.Context, label string, value json.RawMessage) error {
	s.mu.Lock()
	s.values[label] = clone(value)
	fns := s.listeners(label)
	s.mu.Unlock()
	for _, fn := range fns {
		fn(clone(value))
	}
	return nil
}

// Update applies fn to the current value atomically with respect to other
// writers. A missing cell is passed as nil.
func (s *Store) Update(label string, fn func(json.RawMessage) (json.RawMessage, error)) error {
	s.mu.Lock()
	next, err := fn(clone(s.values[label]))
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.values[label] = clone(next)
	fns := s.listeners(label)
	s.mu.Unlock()
	for _, f := range fns {
		f(clone(next))
	}
	return nil
}

func (s *Store) Subscribe(label string, fn func(json.RawMessage)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	if s.subs[label] == nil {
		s.subs[label] = make(map[int]func(json.RawMessage))
	}
	s.subs[label][id] = fn
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs[label], id)
		})
	}
}

func (s *Store) listeners(label string) []func(json.RawMessage) {
	out := make([]func(json.RawMessage), 0, len(s.subs[label]))
	for _, fn := range s.subs[label] {
		out = append(out, fn)
	}
	return out
}

func clone(v json.RawMessage) json.RawMessage {
	if v == nil {
		return nil
	}
	return append(json.RawMessage(nil), v...)
}
