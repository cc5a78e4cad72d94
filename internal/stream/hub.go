package stream

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/crewforge/content-orchestrator/pkg/metrics"
)

const DefaultQueueSize = 64

// Hub fans broadcast events out to every connected subscriber. The subscriber
// set is guarded by the hub lock; fan-out iterates a snapshot so connects and
// disconnects never race the delivery loop. Each subscriber owns a bounded
// queue, so one slow consumer cannot stall the others.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]*Subscriber
	queueSize   int
}

func NewHub(queueSize int) *Hub {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Hub{
		subscribers: make(map[uuid.UUID]*Subscriber),
		queueSize:   queueSize,
	}
}

// Subscribe registers a new subscriber for the websocket connection and queues
// the connection-established event. The caller runs the subscriber's pumps.
func (h *Hub) Subscribe(conn *websocket.Conn) *Subscriber {
	sub := newSubscriber(h, conn, h.queueSize)

	h.mu.Lock()
	h.subscribers[sub.id] = sub
	count := len(h.subscribers)
	h.mu.Unlock()

	metrics.SetStreamSubscribersMetric(count)
	zap.S().Named("stream").Infow("subscriber connected", "subscriber_id", sub.id, "subscribers", count)

	sub.enqueue(NewStatusEvent("System", "Connection", "WebSocket connection established"))
	return sub
}

func (h *Hub) unregister(id uuid.UUID) {
	h.mu.Lock()
	_, exists := h.subscribers[id]
	delete(h.subscribers, id)
	count := len(h.subscribers)
	h.mu.Unlock()

	if exists {
		metrics.SetStreamSubscribersMetric(count)
		zap.S().Named("stream").Infow("subscriber disconnected", "subscriber_id", id, "subscribers", count)
	}
}

// Broadcast delivers the event to every currently connected subscriber.
// Within one subscriber events arrive in broadcast order; a subscriber whose
// queue is full loses the event rather than blocking the hub.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	subs := make([]*Subscriber, 0, len(h.subscribers))
	for _, sub := range h.subscribers {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		if !sub.enqueue(event) {
			metrics.IncreaseStreamDroppedEventsTotalMetric()
			zap.S().Named("stream").Warnw("dropping event for slow subscriber", "subscriber_id", sub.id)
		}
	}
}

// Emit broadcasts a status event. It implements workunit.Emitter.
func (h *Hub) Emit(agent, task, output string) {
	h.Broadcast(NewStatusEvent(agent, task, output))
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
