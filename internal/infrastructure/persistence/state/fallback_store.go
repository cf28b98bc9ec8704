package state

import (
	"encoding/json"
	"sync"

	"github.com/helderdigital/engage-go/internal/infrastructure/observability/logging"
)

// FallbackStore wraps a primary store and degrades to memory-only operation
// the first time the primary fails. Callers never see the error: the site
// must keep running with degraded personalization rather than fail a page
// render. Once degraded, the store stays degraded for the rest of the
// process.
type FallbackStore struct {
	primary  Store
	memory   *MemoryStateStore
	logger   *logging.ChanneledLogger
	degraded bool
	mu       sync.Mutex
}

// NewFallbackStore wraps primary with memory-only degradation.
func NewFallbackStore(primary Store, logger *logging.ChanneledLogger) *FallbackStore {
	return &FallbackStore{
		primary: primary,
		memory:  NewMemoryStateStore(),
		logger:  logger,
	}
}

// Degraded reports whether the store has fallen back to memory-only mode.
func (s *FallbackStore) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

func (s *FallbackStore) degrade(op, key string, err error) {
	s.mu.Lock()
	already := s.degraded
	s.degraded = true
	s.mu.Unlock()

	if !already {
		s.logger.Database().Warn("Persistent store unavailable, degrading to memory-only state",
			"operation", op, "key", key, "error", err.Error())
	}
}

// Load reads from the primary store, or from memory once degraded. Primary
// failures are absorbed: the caller sees found=false and no error.
func (s *FallbackStore) Load(key string) (json.RawMessage, bool, error) {
	s.mu.Lock()
	degraded := s.degraded
	s.mu.Unlock()

	if degraded {
		return s.memory.Load(key)
	}

	raw, found, err := s.primary.Load(key)
	if err != nil {
		s.degrade("load", key, err)
		return s.memory.Load(key)
	}
	return raw, found, nil
}

// Save writes through to the primary store and always mirrors into memory so
// a mid-process degradation keeps the latest state visible.
func (s *FallbackStore) Save(key string, value any) error {
	if err := s.memory.Save(key, value); err != nil {
		// Marshal errors are programmer errors and the only thing the memory
		// store can fail on; surface them.
		return err
	}

	s.mu.Lock()
	degraded := s.degraded
	s.mu.Unlock()

	if degraded {
		return nil
	}

	if err := s.primary.Save(key, value); err != nil {
		s.degrade("save", key, err)
	}
	return nil
}
