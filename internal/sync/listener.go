package sync

import (
	"context"
	"time"

	"github.com/questlog-app/questlog/internal/adapter"
	"github.com/questlog-app/questlog/internal/config"
	"github.com/questlog-app/questlog/internal/logger"
)

// reconnect backoff bounds for the realtime subscription
const (
	listenerBackoffMin = time.Second
	listenerBackoffMax = time.Minute
)

// Listener keeps one realtime subscription open for the session and
// turns inbound change notifications into debounced sync triggers.
//
// Events are hints to re-pull, never applied directly: the pulled REST
// path is the single code path that mutates local state, so realtime
// and periodic syncs can never diverge.
type Listener struct {
	remote  adapter.RemoteStore
	manager *Manager
	cfg     config.ClientSync
	logger  *logger.Logger
}

// NewListener constructs a Listener. It is idle until Run is called.
func NewListener(remote adapter.RemoteStore, manager *Manager, cfg config.ClientSync, log *logger.Logger) *Listener {
	return &Listener{
		remote:  remote,
		manager: manager,
		cfg:     cfg,
		logger:  log,
	}
}

// Run subscribes to the server's change feed and re-subscribes with
// exponential backoff whenever the connection drops. It returns when
// ctx is cancelled.
func (l *Listener) Run(ctx context.Context) {
	log := l.logger.With().Str("func", "Listener.Run").Logger()
	backoff := listenerBackoffMin

	for {
		sub, err := l.remote.Subscribe(ctx)
		if err != nil {
			log.Warn().Err(err).Dur("retry_in", backoff).Msg("realtime subscribe failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > listenerBackoffMax {
				backoff = listenerBackoffMax
			}
			continue
		}

		log.Info().Msg("realtime subscription established")
		backoff = listenerBackoffMin

		l.consume(ctx, sub)
		_ = sub.Close()

		select {
		case <-ctx.Done():
			return
		default:
		}
		if err = sub.Err(); err != nil {
			log.Warn().Err(err).Msg("realtime subscription dropped; reconnecting")
		}
	}
}

// consume forwards events into the debounce window until the
// subscription's channel closes or ctx is cancelled. A burst of
// notifications within one window collapses into a single sync trigger.
func (l *Listener) consume(ctx context.Context, sub adapter.RealtimeSubscription) {
	debounce := time.NewTimer(l.cfg.DebounceWindow)
	if !debounce.Stop() {
		<-debounce.C
	}
	armed := false

	for {
		select {
		case <-ctx.Done():
			debounce.Stop()
			return

		case event, ok := <-sub.Events():
			if !ok {
				// flush a pending trigger before reconnecting so the
				// last burst is not lost
				if armed {
					l.manager.SyncNow()
				}
				debounce.Stop()
				return
			}
			l.logger.Debug().Str("func", "Listener.consume").Str("table", event.Table).
				Str("record_id", event.RecordID).Str("op", event.Op).Msg("change notification")
			if !armed {
				debounce.Reset(l.cfg.DebounceWindow)
				armed = true
			}

		case <-debounce.C:
			armed = false
			l.manager.SyncNow()
		}
	}
}
