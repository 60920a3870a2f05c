package http

import (
	"sync"

	"github.com/questlog-app/questlog/internal/logger"
	"github.com/questlog-app/questlog/models"
)

// subscriberBuffer bounds the per-connection event queue. A subscriber
// that falls this far behind starts losing events; the client's next
// sync cycle picks the changes up anyway.
const subscriberBuffer = 16

// Hub fans committed record changes out to the owning account's
// connected realtime subscribers. It implements [service.ChangePublisher]
// so the record service can notify devices without knowing about
// WebSockets.
type Hub struct {
	mu   sync.RWMutex
	subs map[int64]map[*subscriber]struct{}

	logger *logger.Logger
}

// subscriber is one realtime connection's event queue.
type subscriber struct {
	userID int64
	events chan models.ChangeEvent
}

func NewHub(logger *logger.Logger) *Hub {
	return &Hub{
		subs:   make(map[int64]map[*subscriber]struct{}),
		logger: logger,
	}
}

// Publish delivers event to every subscriber of the given account.
// Delivery is best effort: a subscriber whose queue is full is skipped
// rather than blocking the publishing request.
func (h *Hub) Publish(userID int64, event models.ChangeEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[userID] {
		select {
		case sub.events <- event:
		default:
			h.logger.Debug().
				Int64("user_id", userID).
				Str("table", event.Table).
				Msg("dropping realtime event for slow subscriber")
		}
	}
}

// subscribe registers a new realtime connection for the account and
// returns its event queue.
func (h *Hub) subscribe(userID int64) *subscriber {
	sub := &subscriber{
		userID: userID,
		events: make(chan models.ChangeEvent, subscriberBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*subscriber]struct{})
	}
	h.subs[userID][sub] = struct{}{}

	return sub
}

// unsubscribe removes the connection from the hub. Safe to call for a
// subscriber that was already removed.
func (h *Hub) unsubscribe(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.subs[sub.userID]
	if set == nil {
		return
	}

	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.userID)
	}
}

// subscriberCount reports how many connections the account currently
// holds. Used by tests and the handler's logging.
func (h *Hub) subscriberCount(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subs[userID])
}
