// Package events implements the fan-out broadcaster that pushes queue and
// progress events to every connected observer. Delivery is best-effort: a
// slow or disconnected observer never blocks the sender.
package events

import (
	"sync"

	"github.com/google/uuid"

	"github.com/quangtran/tubequeue/internal/constants"
)

// Kind identifies the event type on the push channel.
type Kind string

const (
	KindQueueUpdated      Kind = "queue_updated"
	KindProgress          Kind = "progress"
	KindQueueItemProgress Kind = "queue_item_progress"
	KindItemCompleted     Kind = "item_completed"
	KindAllComplete       Kind = "all_downloads_complete"
	KindVideoInfo         Kind = "video_info"
	KindError             Kind = "error"
)

// Event is one message on the push channel.
type Event struct {
	Kind    Kind `json:"event"`
	Payload any  `json:"data"`
}

// Hub fans events out to all subscribers.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]chan Event
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]chan Event),
	}
}

// Subscribe registers a new observer and returns its channel together with
// an unsubscribe function. The channel is buffered; events that do not fit
// are dropped for that observer.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	id := uuid.New().String()
	ch := make(chan Event, constants.EventBufferSize)

	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()

	unsubscribe := func() {
		h.mu.Lock()
		if _, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, unsubscribe
}

// Broadcast delivers the event to every subscriber without blocking.
func (h *Hub) Broadcast(kind Kind, payload any) {
	ev := Event{Kind: kind, Payload: payload}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			// Observer is not keeping up; drop rather than block.
		}
	}
}

// SubscriberCount returns the number of connected observers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
