package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	"github.com/questlog-app/questlog/internal/adapter"
	"github.com/questlog-app/questlog/internal/config"
	"github.com/questlog-app/questlog/internal/logger"
	"github.com/questlog-app/questlog/internal/store"
	"github.com/questlog-app/questlog/models"
)

// Manager owns the synchronization lifecycle of one authenticated
// session: it decides when a cycle runs, drains the pending-change queue
// to the server (push), applies remote deltas through [Resolve] (pull),
// and exposes observable state to the UI layer.
//
// One Manager exists per session. All cycles execute on the single
// goroutine started by Run, so at most one cycle is ever in flight; the
// syncing guard additionally protects against re-entry. Triggers from
// any goroutine are safe.
type Manager struct {
	remote   adapter.RemoteStore
	storages *store.ClientStorages
	cfg      config.ClientSync
	logger   *logger.Logger

	observers *observerRegistry

	// trigger has capacity one so that any burst of trigger sources
	// collapses into a single queued cycle.
	trigger chan struct{}

	mu            gosync.Mutex
	syncing       bool
	online        bool
	queuedTrigger bool
	forceFull     bool
	lastFullSync  *time.Time
	conflicts     []models.Conflict

	stopOnce gosync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewManager wires a Manager over the session's remote gateway and local
// storages. The Manager is idle until Run is called.
func NewManager(remote adapter.RemoteStore, storages *store.ClientStorages, cfg config.ClientSync, log *logger.Logger) *Manager {
	return &Manager{
		remote:    remote,
		storages:  storages,
		cfg:       cfg,
		logger:    log,
		observers: newObserverRegistry(log),
		trigger:   make(chan struct{}, 1),
		online:    true,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Run executes sync cycles until ctx is cancelled or Close is called.
// Cycles are started by the periodic timer and by SyncNow; a cycle
// already in flight absorbs any triggers that arrive while it runs.
func (m *Manager) Run(ctx context.Context) {
	defer close(m.done)

	m.restoreLastFullSync(ctx)

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stop:
			return
		case <-ticker.C:
			m.runCycle(ctx)
		case <-m.trigger:
			m.runCycle(ctx)
		}
	}
}

// Close stops the Run loop and waits for any in-flight cycle to reach
// its syncEnd. Safe to call more than once.
func (m *Manager) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
	<-m.done
}

// SyncNow requests one sync cycle. Offline, the request is remembered
// and replayed on the next reconnect instead of failing.
func (m *Manager) SyncNow() {
	m.mu.Lock()
	if !m.online {
		m.queuedTrigger = true
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	select {
	case m.trigger <- struct{}{}:
	default:
	}
}

// ForceFullSync clears the full-sync watermark so the next cycle pulls
// every table with no lower bound, then requests that cycle.
func (m *Manager) ForceFullSync(ctx context.Context) error {
	if err := m.storages.Meta.ClearLastFullSync(ctx); err != nil {
		return fmt.Errorf("clear full sync watermark: %w", err)
	}

	m.mu.Lock()
	m.forceFull = true
	m.lastFullSync = nil
	m.mu.Unlock()

	m.SyncNow()
	return nil
}

// DiscardPending abandons every queued local change. Combined with
// ForceFullSync it converges the device to the server state wholesale.
func (m *Manager) DiscardPending(ctx context.Context) error {
	if err := m.storages.Pending.Clear(ctx); err != nil {
		return fmt.Errorf("clear pending queue: %w", err)
	}
	return nil
}

// SetOnline records the connectivity flag. A false→true transition
// triggers one catch-up cycle, replaying any trigger queued while
// offline.
func (m *Manager) SetOnline(online bool) {
	m.mu.Lock()
	wasOnline := m.online
	m.online = online
	if online {
		m.queuedTrigger = false
	}
	m.mu.Unlock()

	if online && !wasOnline {
		m.logger.Info().Str("func", "Manager.SetOnline").Msg("back online; scheduling catch-up sync")
		select {
		case m.trigger <- struct{}{}:
		default:
		}
	}
}

// On subscribes handler to event and returns its unsubscribe function.
func (m *Manager) On(event Event, handler Handler) func() {
	return m.observers.on(event, handler)
}

// State returns a point-in-time snapshot of the sync state.
func (m *Manager) State(ctx context.Context) models.SyncState {
	count, err := m.storages.Pending.Count(ctx)
	if err != nil {
		m.logger.Err(err).Str("func", "Manager.State").Msg("failed to count pending changes")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	state := models.SyncState{
		Syncing:      m.syncing,
		Online:       m.online,
		PendingCount: count,
		Conflicts:    append([]models.Conflict(nil), m.conflicts...),
	}
	if m.lastFullSync != nil {
		t := *m.lastFullSync
		state.LastFullSync = &t
	}
	return state
}

// TakeConflicts returns the conflicts recorded since the previous call
// and removes them from the retained state.
func (m *Manager) TakeConflicts() []models.Conflict {
	m.mu.Lock()
	defer m.mu.Unlock()

	taken := m.conflicts
	m.conflicts = nil
	return taken
}

func (m *Manager) restoreLastFullSync(ctx context.Context) {
	last, err := m.storages.Meta.LastFullSync(ctx)
	if err != nil {
		m.logger.Err(err).Str("func", "Manager.restoreLastFullSync").Msg("failed to load full sync watermark")
		return
	}

	m.mu.Lock()
	m.lastFullSync = last
	m.mu.Unlock()
}

// runCycle executes one push+pull cycle. The cycle always reaches its
// syncEnd emission: every failure is converted into state or log output,
// never propagated.
func (m *Manager) runCycle(ctx context.Context) {
	m.mu.Lock()
	if m.syncing {
		m.mu.Unlock()
		return
	}
	if !m.online {
		m.queuedTrigger = true
		m.mu.Unlock()
		return
	}
	m.syncing = true
	full := m.lastFullSync == nil || m.forceFull
	m.forceFull = false
	m.mu.Unlock()

	log := m.logger.With().Str("func", "Manager.runCycle").Bool("full", full).Logger()
	started := time.Now().UTC()

	m.observers.emit(EventSyncStart, m.State(ctx))
	defer func() {
		m.mu.Lock()
		m.syncing = false
		m.mu.Unlock()
		m.observers.emit(EventSyncEnd, m.State(ctx))
	}()

	pushOK := m.push(ctx)

	m.mu.Lock()
	online := m.online
	m.mu.Unlock()
	if !online {
		log.Warn().Msg("server unreachable during push; cycle degraded to offline")
		return
	}

	pullOK := m.pull(ctx, full)

	if full && pushOK && pullOK {
		if err := m.storages.Meta.SetLastFullSync(ctx, started); err != nil {
			log.Err(err).Msg("failed to persist full sync watermark")
			return
		}
		m.mu.Lock()
		t := started
		m.lastFullSync = &t
		m.mu.Unlock()
	}
}

// push drains the pending queue in Seq order. The first failure stops
// the drain: a later change may extend the same entity's history, and
// skipping ahead could let a stale write race an ordered one.
func (m *Manager) push(ctx context.Context) bool {
	log := m.logger.With().Str("func", "Manager.push").Logger()

	entries, err := m.storages.Pending.All(ctx)
	if err != nil {
		log.Err(err).Msg("failed to read pending queue")
		return false
	}

	for _, change := range entries {
		if err = m.pushOne(ctx, change); err != nil {
			switch {
			case errors.Is(err, adapter.ErrUnavailable):
				m.SetOnline(false)
				log.Warn().Int64("seq", change.Seq).Msg("push interrupted; server unavailable")
			case errors.Is(err, adapter.ErrUnauthorized):
				log.Warn().Int64("seq", change.Seq).Msg("push rejected; session unauthorized")
			default:
				log.Err(err).Int64("seq", change.Seq).Str("table", change.Table).
					Str("record_id", change.RecordID).Msg("remote write rejected; entry stays pending")
			}
			return false
		}

		if err = m.storages.Pending.Remove(ctx, change.Seq, change.CreatedAt); err != nil {
			log.Err(err).Int64("seq", change.Seq).Msg("failed to remove confirmed pending change")
			return false
		}
	}

	return true
}

func (m *Manager) pushOne(ctx context.Context, change models.PendingChange) error {
	switch change.Op {
	case models.OpDelete:
		_, err := m.remote.Delete(ctx, change.Table, change.RecordID)
		return err

	case models.OpUpsert:
		var rec models.Record
		if err := json.Unmarshal(change.Payload, &rec); err != nil {
			return fmt.Errorf("decode pending payload seq=%d: %w", change.Seq, err)
		}

		persisted, err := m.remote.Upsert(ctx, change.Table, rec)
		if err != nil {
			return err
		}

		// adopt the server-stamped row so the next pull does not
		// re-deliver our own write. A newer local edit that landed while
		// this snapshot was in flight stays authoritative; the next
		// cycle carries it up.
		local, err := m.storages.Records.Get(ctx, change.Table, persisted.ID)
		switch {
		case err != nil && !errors.Is(err, store.ErrRecordNotFound):
			m.logger.Err(err).Str("func", "Manager.pushOne").Str("record_id", persisted.ID).
				Msg("failed to read local record before adopting server stamp")
			return nil
		case err == nil && local.UpdatedAt.After(persisted.UpdatedAt):
			return nil
		}

		if err = m.storages.Records.ApplyRemote(ctx, change.Table, persisted); err != nil {
			m.logger.Err(err).Str("func", "Manager.pushOne").Str("record_id", persisted.ID).
				Msg("failed to adopt server-stamped row locally")
		}
		return nil

	default:
		return fmt.Errorf("unknown pending op %q seq=%d", change.Op, change.Seq)
	}
}

// pull fetches remote deltas table by table. One table's failure is
// isolated from the others, except a connectivity failure, which is
// global and aborts the remaining tables.
func (m *Manager) pull(ctx context.Context, full bool) bool {
	log := m.logger.With().Str("func", "Manager.pull").Bool("full", full).Logger()

	ok := true
	for _, table := range models.SyncTables() {
		err := m.pullTable(ctx, table, full)
		if err == nil {
			continue
		}

		ok = false
		if errors.Is(err, adapter.ErrUnavailable) {
			m.SetOnline(false)
			log.Warn().Str("table", table).Msg("pull interrupted; server unavailable")
			return false
		}
		log.Err(err).Str("table", table).Msg("table pull failed; continuing with remaining tables")
	}

	return ok
}

func (m *Manager) pullTable(ctx context.Context, table string, full bool) error {
	var since *time.Time
	if !full {
		cursor, err := m.storages.Meta.Cursor(ctx, table)
		if err != nil {
			return fmt.Errorf("read pull cursor: %w", err)
		}
		if cursor != nil {
			since = cursor
		} else {
			m.mu.Lock()
			since = m.lastFullSync
			m.mu.Unlock()
		}
	}

	rows, err := m.remote.FetchSince(ctx, table, since)
	if err != nil {
		return err
	}

	var newest time.Time
	for _, remote := range rows {
		if remote.UpdatedAt.After(newest) {
			newest = remote.UpdatedAt
		}
		if err = m.applyRemoteRow(ctx, table, remote); err != nil {
			return fmt.Errorf("apply remote row %s: %w", remote.ID, err)
		}
	}

	if len(rows) > 0 {
		if err = m.storages.Meta.SetCursor(ctx, table, newest); err != nil {
			return fmt.Errorf("advance pull cursor: %w", err)
		}
	}

	return nil
}

// applyRemoteRow reconciles one fetched row against the local copy and
// persists the winner.
func (m *Manager) applyRemoteRow(ctx context.Context, table string, remote models.Record) error {
	local, err := m.storages.Records.Get(ctx, table, remote.ID)
	if errors.Is(err, store.ErrRecordNotFound) {
		return m.storages.Records.ApplyRemote(ctx, table, remote)
	}
	if err != nil {
		return err
	}

	res := Resolve(local, remote)
	if res.Conflicted {
		m.recordConflict(ctx, table, local, remote)
	}

	return m.storages.Records.ApplyRemote(ctx, table, res.Winner)
}

func (m *Manager) recordConflict(ctx context.Context, table string, local, remote models.Record) {
	conflict := models.Conflict{
		Table:      table,
		RecordID:   remote.ID,
		Local:      local,
		Remote:     remote,
		Resolution: models.ResolutionRemote,
		DetectedAt: time.Now().UTC(),
	}

	m.mu.Lock()
	m.conflicts = append(m.conflicts, conflict)
	m.mu.Unlock()

	m.logger.Warn().Str("func", "Manager.recordConflict").Str("table", table).
		Str("record_id", remote.ID).Msg("concurrent edit detected; remote version kept")

	m.observers.emit(EventConflict, m.State(ctx))
}
