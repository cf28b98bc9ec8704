package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/helderdigital/engage-go/internal/domain/events"
	"github.com/helderdigital/engage-go/internal/infrastructure/messaging"
	"github.com/helderdigital/engage-go/internal/infrastructure/observability/logging"
	"github.com/helderdigital/engage-go/internal/infrastructure/persistence/state"
	"github.com/helderdigital/engage-go/internal/infrastructure/security"
)

// VisitorRecord is the registry entry for one known visitor.
type VisitorRecord struct {
	VisitorID string    `json:"visitorId"`
	CreatedAt time.Time `json:"createdAt"`
	LastSeen  time.Time `json:"lastSeen"`
}

// VisitorService owns visitor identity: ULID generation for first-time
// visitors and the registry of known ids. The client holds its id in durable
// browser storage; the registry is bookkeeping, not the source of truth, so an
// unknown inbound id is adopted rather than rejected.
type VisitorService struct {
	store  state.Store
	sink   messaging.EventSink
	logger *logging.ChanneledLogger
	now    func() time.Time

	mu       sync.RWMutex
	visitors map[string]*VisitorRecord
}

// NewVisitorService creates the visitor service and restores the registry.
func NewVisitorService(store state.Store, sink messaging.EventSink, logger *logging.ChanneledLogger) *VisitorService {
	s := &VisitorService{
		store:    store,
		sink:     sink,
		logger:   logger,
		now:      time.Now,
		visitors: make(map[string]*VisitorRecord),
	}
	s.load()
	return s
}

func (s *VisitorService) load() {
	raw, found, err := s.store.Load(state.KeyVisitors)
	if err != nil || !found {
		return
	}

	var visitors map[string]*VisitorRecord
	if err := json.Unmarshal(raw, &visitors); err != nil {
		// A corrupted registry is recoverable: start empty, client-held ids
		// re-register themselves on their next request.
		s.logger.System().Warn("Discarding corrupted visitor registry", "error", err.Error())
		return
	}

	s.mu.Lock()
	s.visitors = visitors
	s.mu.Unlock()
	s.logger.System().Debug("Visitor registry restored", "visitors", len(visitors))
}

// GetOrCreate resolves the inbound visitor id. An empty id mints a new ULID;
// an unknown non-empty id is adopted as-is so client-held identity survives
// server-side state loss. Returns the resolved id and whether it was newly
// registered.
func (s *VisitorService) GetOrCreate(visitorID string) (string, bool) {
	now := s.now()

	if visitorID == "" {
		visitorID = security.GenerateULID()
	}

	s.mu.Lock()
	record, known := s.visitors[visitorID]
	if known {
		record.LastSeen = now
	} else {
		s.visitors[visitorID] = &VisitorRecord{VisitorID: visitorID, CreatedAt: now, LastSeen: now}
	}
	s.mu.Unlock()

	s.persist()

	if !known {
		s.logger.System().Debug("Visitor registered", "visitorId", visitorID)
		s.sink.Emit(events.TrackingEvent{
			ID:        security.GenerateULID(),
			Type:      events.TypeVisitorCreated,
			VisitorID: visitorID,
			Timestamp: now,
		})
	}
	return visitorID, !known
}

// Known reports whether a visitor id is registered.
func (s *VisitorService) Known(visitorID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.visitors[visitorID]
	return ok
}

// Count returns the number of registered visitors.
func (s *VisitorService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.visitors)
}

func (s *VisitorService) persist() {
	s.mu.RLock()
	snapshot := make(map[string]*VisitorRecord, len(s.visitors))
	for id, record := range s.visitors {
		clone := *record
		snapshot[id] = &clone
	}
	s.mu.RUnlock()

	if err := s.store.Save(state.KeyVisitors, snapshot); err != nil {
		s.logger.System().Error("Failed to persist visitor registry", "error", err.Error())
	}
}
