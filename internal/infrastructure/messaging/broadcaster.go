// Package messaging provides the concrete implementation of the SSE broadcaster.
package messaging

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/helderdigital/engage-go/internal/domain/events"
	"github.com/helderdigital/engage-go/internal/infrastructure/observability/logging"
)

// SSEBroadcaster manages visitor-scoped SSE connections and delivers each
// visitor's own tracking events to their open streams.
type SSEBroadcaster struct {
	visitorClients map[string][]chan string // visitorId -> channels
	mu             sync.Mutex
	logger         *logging.ChanneledLogger
	bufferSize     int
}

// NewSSEBroadcaster creates an SSE broadcaster.
func NewSSEBroadcaster(bufferSize int, logger *logging.ChanneledLogger) *SSEBroadcaster {
	if bufferSize <= 0 {
		bufferSize = 10
	}
	return &SSEBroadcaster{
		visitorClients: make(map[string][]chan string),
		logger:         logger,
		bufferSize:     bufferSize,
	}
}

// AddVisitorClient registers a new SSE client for a visitor.
func (b *SSEBroadcaster) AddVisitorClient(visitorID string) chan string {
	ch := make(chan string, b.bufferSize)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.visitorClients[visitorID] = append(b.visitorClients[visitorID], ch)
	b.logger.SSE().Debug("SSE client registered", "visitorId", visitorID, "connections", len(b.visitorClients[visitorID]))
	return ch
}

// RemoveVisitorClient removes an SSE client for a visitor.
func (b *SSEBroadcaster) RemoveVisitorClient(ch chan string, visitorID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	clients, exists := b.visitorClients[visitorID]
	if !exists {
		return
	}

	newClients := make([]chan string, 0, len(clients))
	for _, client := range clients {
		if client != ch {
			newClients = append(newClients, client)
		}
	}
	if len(newClients) == 0 {
		delete(b.visitorClients, visitorID)
	} else {
		b.visitorClients[visitorID] = newClients
	}
	b.logger.SSE().Debug("SSE client unregistered", "visitorId", visitorID)
}

// VisitorConnectionCount returns the open connection count for a visitor.
func (b *SSEBroadcaster) VisitorConnectionCount(visitorID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.visitorClients[visitorID])
}

// Emit delivers a tracking event to the owning visitor's SSE streams. Sends
// are non-blocking: full client buffers drop the message rather than stall
// the engine.
func (b *SSEBroadcaster) Emit(event events.TrackingEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.SSE().Error("Panic recovered in SSE emit", "error", r, "visitorId", event.VisitorID)
		}
	}()

	payload, err := json.Marshal(event)
	if err != nil {
		b.logger.SSE().Error("Failed to marshal tracking event", "error", err.Error(), "eventType", event.Type)
		return
	}
	message := fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload)

	b.mu.Lock()
	defer b.mu.Unlock()

	clients, exists := b.visitorClients[event.VisitorID]
	if !exists {
		return
	}

	dropped := 0
	for _, client := range clients {
		select {
		case client <- message:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		b.logger.SSE().Warn("Dropped SSE messages for slow clients", "visitorId", event.VisitorID, "dropped", dropped)
	}
}
