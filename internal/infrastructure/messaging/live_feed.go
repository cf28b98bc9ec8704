package messaging

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/helderdigital/engage-go/internal/domain/events"
	"github.com/helderdigital/engage-go/internal/infrastructure/observability/logging"
)

// FeedClient represents a single connected admin dashboard client.
type FeedClient struct {
	Conn *websocket.Conn
	Send chan []byte
}

// DashboardStatsProvider supplies the aggregate payload broadcast on each tick.
type DashboardStatsProvider interface {
	DashboardStats() any
}

// feedMessage is the envelope written to admin dashboard clients.
type feedMessage struct {
	Kind    string `json:"kind"` // "event" or "stats"
	Payload any    `json:"payload"`
}

// LiveFeedBroadcaster manages connected admin dashboard clients. It pushes
// every tracking event as it happens and a full stats payload on a fixed
// interval. It implements EventSink.
type LiveFeedBroadcaster struct {
	clients    map[*FeedClient]bool
	register   chan *FeedClient
	unregister chan *FeedClient
	stats      DashboardStatsProvider
	logger     *logging.ChanneledLogger
	mu         sync.RWMutex
}

// NewLiveFeedBroadcaster creates a new broadcaster instance.
func NewLiveFeedBroadcaster(stats DashboardStatsProvider, logger *logging.ChanneledLogger) *LiveFeedBroadcaster {
	return &LiveFeedBroadcaster{
		clients:    make(map[*FeedClient]bool),
		register:   make(chan *FeedClient),
		unregister: make(chan *FeedClient),
		stats:      stats,
		logger:     logger,
	}
}

// Run starts the broadcaster's main loop. This should be run as a goroutine.
func (b *LiveFeedBroadcaster) Run() {
	ticker := time.NewTicker(20 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case client := <-b.register:
			b.mu.Lock()
			b.clients[client] = true
			count := len(b.clients)
			b.mu.Unlock()
			b.logger.SSE().Debug("Admin feed client registered", "clients", count)

		case client := <-b.unregister:
			b.mu.Lock()
			if _, ok := b.clients[client]; ok {
				delete(b.clients, client)
				close(client.Send)
			}
			count := len(b.clients)
			b.mu.Unlock()
			b.logger.SSE().Debug("Admin feed client unregistered", "clients", count)

		case <-ticker.C:
			b.broadcastStats()
		}
	}
}

// SetStatsProvider wires the stats source after construction. The analytics
// aggregator depends on services that consume this broadcaster as their event
// sink, so the provider arrives late.
func (b *LiveFeedBroadcaster) SetStatsProvider(stats DashboardStatsProvider) {
	b.mu.Lock()
	b.stats = stats
	b.mu.Unlock()
}

// Register queues a client for registration.
func (b *LiveFeedBroadcaster) Register(client *FeedClient) {
	b.register <- client
}

// Unregister queues a client for unregistration.
func (b *LiveFeedBroadcaster) Unregister(client *FeedClient) {
	b.unregister <- client
}

// Emit pushes a tracking event to all connected admin clients. Slow clients
// drop the message rather than block the engine.
func (b *LiveFeedBroadcaster) Emit(event events.TrackingEvent) {
	b.broadcast(feedMessage{Kind: "event", Payload: event})
}

// broadcastStats gathers and sends the aggregate dashboard payload.
func (b *LiveFeedBroadcaster) broadcastStats() {
	b.mu.RLock()
	stats := b.stats
	hasClients := len(b.clients) > 0
	b.mu.RUnlock()

	if stats == nil || !hasClients {
		return
	}

	b.broadcast(feedMessage{Kind: "stats", Payload: stats.DashboardStats()})
}

func (b *LiveFeedBroadcaster) broadcast(msg feedMessage) {
	message, err := json.Marshal(msg)
	if err != nil {
		b.logger.SSE().Error("Failed to marshal admin feed message", "error", err.Error(), "kind", msg.Kind)
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for client := range b.clients {
		select {
		case client.Send <- message:
		default:
		}
	}
}
