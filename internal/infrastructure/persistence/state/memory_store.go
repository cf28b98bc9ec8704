package state

import (
	"encoding/json"
	"sync"
)

// MemoryStateStore is a map-backed Store used in tests and as the degraded
// mode target when the backing database is unavailable.
type MemoryStateStore struct {
	records map[string]json.RawMessage
	mu      sync.RWMutex
}

// NewMemoryStateStore creates an empty in-memory store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{records: make(map[string]json.RawMessage)}
}

// Load retrieves the JSON document stored under key.
func (s *MemoryStateStore) Load(key string) (json.RawMessage, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok := s.records[key]
	if !ok {
		return nil, false, nil
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out, true, nil
}

// Save writes a JSON-serializable value under key.
func (s *MemoryStateStore) Save(key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = payload
	return nil
}
