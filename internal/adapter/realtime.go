package adapter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/questlog-app/questlog/models"
)

// Subscribe implements [RemoteStore]. It dials the server's WebSocket
// change feed with the current bearer token and starts a reader
// goroutine that forwards decoded events until the connection drops or
// Close is called.
func (h *httpRemoteStore) Subscribe(ctx context.Context) (RealtimeSubscription, error) {
	wsURL := httpToWS(h.baseURL) + "/api/realtime"

	opts := &websocket.DialOptions{}
	if token := h.Token(); token != "" {
		opts.HTTPHeader = map[string][]string{
			"Authorization": {"Bearer " + token},
		}
	}

	conn, resp, err := websocket.Dial(ctx, wsURL, opts)
	if err != nil {
		if resp != nil && (resp.StatusCode == 401 || resp.StatusCode == 403) {
			return nil, fmt.Errorf("%w: realtime dial http %d", ErrUnauthorized, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: realtime dial: %w", ErrUnavailable, err)
	}

	sub := &wsSubscription{
		conn:   conn,
		events: make(chan models.ChangeEvent, 16),
	}
	go sub.readLoop(ctx)

	return sub, nil
}

func httpToWS(baseURL string) string {
	switch {
	case strings.HasPrefix(baseURL, "https://"):
		return "wss://" + strings.TrimPrefix(baseURL, "https://")
	case strings.HasPrefix(baseURL, "http://"):
		return "ws://" + strings.TrimPrefix(baseURL, "http://")
	}
	return baseURL
}

type wsSubscription struct {
	conn   *websocket.Conn
	events chan models.ChangeEvent

	mu     sync.Mutex
	err    error
	closed bool
}

func (s *wsSubscription) Events() <-chan models.ChangeEvent {
	return s.events
}

func (s *wsSubscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close implements [RealtimeSubscription]. Closing is idempotent; the
// reader goroutine observes the closed connection and closes the events
// channel.
func (s *wsSubscription) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	return s.conn.Close(websocket.StatusNormalClosure, "")
}

func (s *wsSubscription) readLoop(ctx context.Context) {
	defer close(s.events)

	for {
		var event models.ChangeEvent
		if err := wsjson.Read(ctx, s.conn, &event); err != nil {
			s.setErr(err)
			return
		}

		select {
		case s.events <- event:
		case <-ctx.Done():
			s.setErr(ctx.Err())
			return
		}
	}
}

// setErr records the terminal read error unless the subscription was
// closed deliberately.
func (s *wsSubscription) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	status := websocket.CloseStatus(err)
	if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
		return
	}
	s.err = err
}
