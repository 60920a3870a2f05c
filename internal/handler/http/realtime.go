package http

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/questlog-app/questlog/internal/logger"
	"github.com/questlog-app/questlog/internal/utils"
)

// realtimeWriteTimeout bounds a single event write. A connection that
// cannot take an event within this window is considered dead.
const realtimeWriteTimeout = 5 * time.Second

// realtime upgrades the request to a WebSocket and streams the
// account's change events until the client disconnects. Events carry
// only table, record id, operation and timestamp; the client pulls the
// actual payloads through the records endpoint.
func (h *Handler) realtime(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.realtime").Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Err(err).Str("func", "*Handler.realtime").Msg("websocket upgrade failed")
		return
	}

	sub := h.hub.subscribe(userID)
	defer h.hub.unsubscribe(sub)
	defer conn.Close(websocket.StatusNormalClosure, "")

	log.Debug().
		Int64("user_id", userID).
		Int("subscribers", h.hub.subscriberCount(userID)).
		Msg("realtime subscriber connected")

	// The client never sends application messages. The read loop exists
	// to notice the peer closing the connection.
	readCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		defer cancel()
		for {
			if _, _, readErr := conn.Read(readCtx); readErr != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-readCtx.Done():
			return
		case event := <-sub.events:
			writeCtx, cancelWrite := context.WithTimeout(readCtx, realtimeWriteTimeout)
			err = wsjson.Write(writeCtx, conn, event)
			cancelWrite()
			if err != nil {
				log.Debug().Err(err).Int64("user_id", userID).Msg("realtime subscriber write failed")
				return
			}
		}
	}
}
