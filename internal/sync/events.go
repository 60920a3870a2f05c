package sync

import (
	gosync "sync"

	"github.com/questlog-app/questlog/internal/logger"
	"github.com/questlog-app/questlog/models"
)

// Event names emitted by the [Manager] over one sync cycle. EventSyncStart
// and EventSyncEnd fire exactly once per cycle; EventConflict fires once
// per detected conflict.
type Event string

const (
	EventSyncStart Event = "syncStart"
	EventConflict  Event = "conflict"
	EventSyncEnd   Event = "syncEnd"
)

// Handler receives a snapshot of the sync state taken at emission time.
// For EventConflict the snapshot's Conflicts field includes the conflict
// that triggered the event.
type Handler func(state models.SyncState)

// observerRegistry fans events out to subscribed handlers. Handlers may
// be added and removed at any time, including from inside a handler of a
// different event.
type observerRegistry struct {
	mu     gosync.Mutex
	nextID int
	subs   map[Event]map[int]Handler
	logger *logger.Logger
}

func newObserverRegistry(log *logger.Logger) *observerRegistry {
	return &observerRegistry{
		subs:   make(map[Event]map[int]Handler),
		logger: log,
	}
}

// on registers handler for event and returns an unsubscribe function.
// Unsubscribing twice is a no-op.
func (r *observerRegistry) on(event Event, handler Handler) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.subs[event] == nil {
		r.subs[event] = make(map[int]Handler)
	}
	id := r.nextID
	r.nextID++
	r.subs[event][id] = handler

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subs[event], id)
	}
}

// emit delivers state to every handler of event synchronously. A
// panicking handler is logged and isolated so it can never abort the
// sync cycle or starve the remaining handlers.
func (r *observerRegistry) emit(event Event, state models.SyncState) {
	r.mu.Lock()
	handlers := make([]Handler, 0, len(r.subs[event]))
	for _, h := range r.subs[event] {
		handlers = append(handlers, h)
	}
	r.mu.Unlock()

	for _, h := range handlers {
		r.safeCall(event, h, state)
	}
}

func (r *observerRegistry) safeCall(event Event, h Handler, state models.SyncState) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().Str("func", "observerRegistry.safeCall").
				Str("event", string(event)).Interface("panic", rec).
				Msg("observer panicked; isolated")
		}
	}()
	h(state)
}
