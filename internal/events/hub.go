package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/Dragoner91/ordertrack/internal/domain"
	"github.com/Dragoner91/ordertrack/internal/metrics"
)

// Stream message types pushed to subscribers.
const (
	TypeConnection  = "connection"
	TypePing        = "ping"
	TypeOrderUpdate = "order-update"
)

// Message is one unit on the live-update stream, tagged by Type.
type Message struct {
	Type      string                           `json:"type"`
	Payload   *domain.StatusUpdateNotification `json:"payload,omitempty"`
	Message   string                           `json:"message,omitempty"`
	Timestamp time.Time                        `json:"timestamp"`
}

// Subscriber is one live connection held in the hub registry. The hub
// owns the Events channel: it is closed on unsubscribe or eviction.
type Subscriber struct {
	ID     string
	Events chan Message
}

// Hub maintains the registry of open subscriber connections and fans
// every accepted update out to all of them. A subscriber that cannot
// keep up (full buffer) is treated as dead and evicted during the same
// broadcast call.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]*Subscriber
	interval    time.Duration
	bufferSize  int
}

func NewHub(heartbeat time.Duration) *Hub {
	return &Hub{
		subscribers: make(map[string]*Subscriber),
		interval:    heartbeat,
		bufferSize:  16,
	}
}

// Subscribe registers a new connection and queues its greeting message.
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{
		ID:     gonanoid.Must(12),
		Events: make(chan Message, h.bufferSize),
	}

	h.mu.Lock()
	h.subscribers[sub.ID] = sub
	// Queued under the lock so no broadcast can slot in ahead of the
	// greeting. The buffer is fresh, the send cannot block.
	sub.Events <- Message{
		Type:      TypeConnection,
		Message:   "Connected to order updates",
		Timestamp: time.Now(),
	}
	h.mu.Unlock()

	metrics.ConnectedSubscribers.Inc()
	return sub
}

// Unsubscribe removes a connection. Removing an absent ID is a no-op, so
// a subscriber evicted mid-broadcast can still call it on the way out.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.evictLocked(id)
}

func (h *Hub) evictLocked(id string) {
	if sub, ok := h.subscribers[id]; ok {
		close(sub.Events)
		delete(h.subscribers, id)
		metrics.ConnectedSubscribers.Dec()
	}
}

// Broadcast delivers msg to every registered subscriber, FIFO per call.
// Dead peers are evicted in the same call; Broadcast never fails.
func (h *Hub) Broadcast(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, sub := range h.subscribers {
		select {
		case sub.Events <- msg:
		default:
			slog.Info("evicting dead subscriber",
				slog.String("code", "HUB_EVICT"),
				slog.String("subscriber_id", id),
			)
			h.evictLocked(id)
		}
	}
}

// BroadcastUpdate wraps a notification in an order-update message.
func (h *Hub) BroadcastUpdate(n domain.StatusUpdateNotification) {
	h.Broadcast(Message{
		Type:      TypeOrderUpdate,
		Payload:   &n,
		Timestamp: time.Now(),
	})
}

// Run drives the heartbeat until ctx is cancelled. Pings travel the same
// eviction path as regular broadcasts.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Broadcast(Message{Type: TypePing, Timestamp: time.Now()})
		}
	}
}

func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
