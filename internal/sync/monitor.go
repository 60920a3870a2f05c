package sync

import (
	"context"
	"time"

	"github.com/questlog-app/questlog/internal/adapter"
	"github.com/questlog-app/questlog/internal/config"
	"github.com/questlog-app/questlog/internal/logger"
)

// Monitor probes server reachability on a fixed cadence and feeds the
// online/offline flag into the [Manager]. The Manager reacts to a
// false→true transition with one catch-up cycle; a true→false
// transition only flags state, in-flight operations fail naturally and
// fall back to the push retry path.
type Monitor struct {
	remote  adapter.RemoteStore
	manager *Manager
	cfg     config.ClientSync
	logger  *logger.Logger
}

// NewMonitor constructs a Monitor. It is idle until Run is called.
func NewMonitor(remote adapter.RemoteStore, manager *Manager, cfg config.ClientSync, log *logger.Logger) *Monitor {
	return &Monitor{
		remote:  remote,
		manager: manager,
		cfg:     cfg,
		logger:  log,
	}
}

// Run probes connectivity until ctx is cancelled. The first probe fires
// immediately so a session that starts offline is flagged without
// waiting a full interval.
func (m *Monitor) Run(ctx context.Context) {
	log := m.logger.With().Str("func", "Monitor.Run").Logger()

	m.probe(ctx)

	ticker := time.NewTicker(m.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("connectivity monitor stopped")
			return
		case <-ticker.C:
			m.probe(ctx)
		}
	}
}

func (m *Monitor) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, m.cfg.PingInterval)
	defer cancel()

	err := m.remote.Ping(probeCtx)
	if err != nil {
		m.logger.Debug().Str("func", "Monitor.probe").Err(err).Msg("ping failed")
	}

	m.manager.SetOnline(err == nil)
}
