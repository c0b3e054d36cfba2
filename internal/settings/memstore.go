package settings

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]json.RawMessage
	Reads  int
}

// NewMemoryStore seeds a store from plain values.
func NewMemoryStore(seed map[string]any) *MemoryStore {
	s := &MemoryStore{values: map[string]json.RawMessage{}}
	for k, v := range seed {
		b, _ := json.Marshal(v)
		s.values[k] = b
	}
	return s
}

func (s *MemoryStore) All(_ context.Context) (map[string]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Reads++
	out := make(map[string]json.RawMessage, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) UpsertMany(_ context.Context, values map[string]json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.values[k] = v
	}
	return nil
}
