package sync

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/questlog-app/questlog/internal/adapter"
	"github.com/questlog-app/questlog/internal/config"
	"github.com/questlog-app/questlog/internal/logger"
	"github.com/questlog-app/questlog/internal/mock"
	"github.com/questlog-app/questlog/internal/store"
	"github.com/questlog-app/questlog/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func testSyncConfig() config.ClientSync {
	return config.ClientSync{
		Interval:       time.Minute,
		DebounceWindow: 10 * time.Millisecond,
		PingInterval:   time.Second,
	}
}

func newTestManager(t *testing.T) (*Manager, *mock.MockRemoteStore, *store.ClientStorages) {
	t.Helper()
	ctrl := gomock.NewController(t)
	remote := mock.NewMockRemoteStore(ctrl)

	cfg := config.ClientStorage{Path: filepath.Join(t.TempDir(), "questlog.db")}
	storages, err := store.NewClientStorages(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { storages.Close() })

	return NewManager(remote, storages, testSyncConfig(), logger.Nop()), remote, storages
}

func saveLocalQuest(t *testing.T, storages *store.ClientStorages, id string, at time.Time, payload string) models.Record {
	t.Helper()
	rec := models.Record{
		ID:        id,
		Payload:   json.RawMessage(payload),
		CreatedAt: at,
		UpdatedAt: at,
	}
	require.NoError(t, storages.Records.SaveLocal(context.Background(), models.TableQuests, rec))
	return rec
}

// expectEmptyPull satisfies the pull phase with no remote changes for
// every table.
func expectEmptyPull(remote *mock.MockRemoteStore) {
	remote.EXPECT().
		FetchSince(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, nil).
		Times(len(models.SyncTables()))
}

func TestManagerPushDrainsQueueInOrder(t *testing.T) {
	m, remote, storages := newTestManager(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	serverNow := now.Add(2 * time.Second)

	first := saveLocalQuest(t, storages, "q-1", now, `{"n":1}`)
	second := saveLocalQuest(t, storages, "q-2", now.Add(time.Second), `{"n":2}`)

	gomock.InOrder(
		remote.EXPECT().Upsert(gomock.Any(), models.TableQuests, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, rec models.Record) (models.Record, error) {
				assert.Equal(t, first.ID, rec.ID)
				rec.UserID = 42
				rec.UpdatedAt = serverNow
				return rec, nil
			}),
		remote.EXPECT().Upsert(gomock.Any(), models.TableQuests, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, rec models.Record) (models.Record, error) {
				assert.Equal(t, second.ID, rec.ID)
				rec.UserID = 42
				rec.UpdatedAt = serverNow
				return rec, nil
			}),
	)
	expectEmptyPull(remote)

	m.runCycle(ctx)

	count, err := storages.Pending.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// pushed rows adopt the server-stamped timestamp
	got, err := storages.Records.Get(ctx, models.TableQuests, "q-1")
	require.NoError(t, err)
	assert.True(t, got.UpdatedAt.Equal(serverNow))
}

func TestManagerPushStopsOnFirstFailure(t *testing.T) {
	m, remote, storages := newTestManager(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	saveLocalQuest(t, storages, "q-1", now, `{"n":1}`)
	saveLocalQuest(t, storages, "q-2", now.Add(time.Second), `{"n":2}`)

	// the first entry is rejected; the second must never be attempted
	remote.EXPECT().Upsert(gomock.Any(), models.TableQuests, gomock.Any()).
		Return(models.Record{}, adapter.ErrRemoteWrite)
	expectEmptyPull(remote)

	m.runCycle(ctx)

	count, err := storages.Pending.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestManagerPushDeleteEntry(t *testing.T) {
	m, remote, storages := newTestManager(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	saveLocalQuest(t, storages, "q-1", now, `{"n":1}`)
	require.NoError(t, storages.Records.DeleteLocal(ctx, models.TableQuests, "q-1", now.Add(time.Second)))

	// the delete superseded the queued upsert, so only Delete goes out
	remote.EXPECT().Delete(gomock.Any(), models.TableQuests, "q-1").Return(true, nil)
	expectEmptyPull(remote)

	m.runCycle(ctx)

	count, err := storages.Pending.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestManagerEditDuringPushIsNotLost(t *testing.T) {
	m, remote, storages := newTestManager(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	serverNow := now.Add(500 * time.Millisecond)
	editedAt := now.Add(time.Second)

	saveLocalQuest(t, storages, "q-1", now, `{"v":"v1"}`)

	// a second edit lands while the first snapshot is on the wire: the
	// superseded entry must stay queued and the newer local record must
	// not be clobbered by the server-stamped older payload
	remote.EXPECT().Upsert(gomock.Any(), models.TableQuests, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, rec models.Record) (models.Record, error) {
			assert.JSONEq(t, `{"v":"v1"}`, string(rec.Payload))
			saveLocalQuest(t, storages, "q-1", editedAt, `{"v":"v2"}`)
			rec.UserID = 42
			rec.UpdatedAt = serverNow
			return rec, nil
		})
	expectEmptyPull(remote)

	m.runCycle(ctx)

	count, err := storages.Pending.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := storages.Records.Get(ctx, models.TableQuests, "q-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":"v2"}`, string(got.Payload))
	assert.True(t, got.UpdatedAt.Equal(editedAt))

	// the next cycle carries the surviving edit up and drains the queue
	remote.EXPECT().Upsert(gomock.Any(), models.TableQuests, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, rec models.Record) (models.Record, error) {
			assert.JSONEq(t, `{"v":"v2"}`, string(rec.Payload))
			rec.UserID = 42
			rec.UpdatedAt = editedAt.Add(500 * time.Millisecond)
			return rec, nil
		})
	expectEmptyPull(remote)

	m.runCycle(ctx)

	count, err = storages.Pending.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestManagerUnavailableDegradesToOffline(t *testing.T) {
	m, remote, storages := newTestManager(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	saveLocalQuest(t, storages, "q-1", now, `{"n":1}`)

	// push fails on connectivity; the pull phase must not run
	remote.EXPECT().Upsert(gomock.Any(), models.TableQuests, gomock.Any()).
		Return(models.Record{}, adapter.ErrUnavailable)

	var events []Event
	m.On(EventSyncStart, func(models.SyncState) { events = append(events, EventSyncStart) })
	m.On(EventSyncEnd, func(models.SyncState) { events = append(events, EventSyncEnd) })

	m.runCycle(ctx)

	state := m.State(ctx)
	assert.False(t, state.Online)
	assert.Equal(t, 1, state.PendingCount)
	assert.Nil(t, state.LastFullSync)
	assert.Equal(t, []Event{EventSyncStart, EventSyncEnd}, events)
}

func TestManagerFullSyncThenIncremental(t *testing.T) {
	m, remote, storages := newTestManager(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	remoteQuest := models.Record{
		ID:        "q-remote",
		UserID:    42,
		Payload:   json.RawMessage(`{"title":"from another device"}`),
		CreatedAt: now,
		UpdatedAt: now,
	}

	// first cycle has no watermark, so every table is fetched with no
	// lower bound
	remote.EXPECT().FetchSince(gomock.Any(), models.TableCharacters, gomock.Nil()).Return(nil, nil)
	remote.EXPECT().FetchSince(gomock.Any(), models.TableCheckins, gomock.Nil()).Return(nil, nil)
	remote.EXPECT().FetchSince(gomock.Any(), models.TableQuests, gomock.Nil()).
		Return([]models.Record{remoteQuest}, nil)
	remote.EXPECT().FetchSince(gomock.Any(), models.TableStudySessions, gomock.Nil()).Return(nil, nil)

	m.runCycle(ctx)

	got, err := storages.Records.Get(ctx, models.TableQuests, "q-remote")
	require.NoError(t, err)
	assert.JSONEq(t, string(remoteQuest.Payload), string(got.Payload))

	state := m.State(ctx)
	require.NotNil(t, state.LastFullSync)

	// the second cycle is incremental: the quests table advanced its
	// cursor to the fetched row, the others fall back to the watermark
	watermark := *state.LastFullSync
	remote.EXPECT().FetchSince(gomock.Any(), models.TableCharacters, timePtrEq(watermark)).Return(nil, nil)
	remote.EXPECT().FetchSince(gomock.Any(), models.TableCheckins, timePtrEq(watermark)).Return(nil, nil)
	remote.EXPECT().FetchSince(gomock.Any(), models.TableQuests, timePtrEq(now)).Return(nil, nil)
	remote.EXPECT().FetchSince(gomock.Any(), models.TableStudySessions, timePtrEq(watermark)).Return(nil, nil)

	m.runCycle(ctx)
}

func TestManagerConflictDetection(t *testing.T) {
	m, remote, storages := newTestManager(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	local := models.Record{ID: "q-1", Payload: json.RawMessage(`{"v":"A"}`), CreatedAt: at, UpdatedAt: at}
	require.NoError(t, storages.Records.ApplyRemote(ctx, models.TableQuests, local))

	remoteRec := models.Record{ID: "q-1", UserID: 42, Payload: json.RawMessage(`{"v":"B"}`), CreatedAt: at, UpdatedAt: at}
	remote.EXPECT().FetchSince(gomock.Any(), models.TableCharacters, gomock.Any()).Return(nil, nil)
	remote.EXPECT().FetchSince(gomock.Any(), models.TableCheckins, gomock.Any()).Return(nil, nil)
	remote.EXPECT().FetchSince(gomock.Any(), models.TableQuests, gomock.Any()).
		Return([]models.Record{remoteRec}, nil)
	remote.EXPECT().FetchSince(gomock.Any(), models.TableStudySessions, gomock.Any()).Return(nil, nil)

	conflictEvents := 0
	m.On(EventConflict, func(state models.SyncState) {
		conflictEvents++
		assert.NotEmpty(t, state.Conflicts)
	})

	m.runCycle(ctx)

	assert.Equal(t, 1, conflictEvents)

	// remote wins and is applied locally
	got, err := storages.Records.Get(ctx, models.TableQuests, "q-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":"B"}`, string(got.Payload))

	conflicts := m.TakeConflicts()
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.TableQuests, conflicts[0].Table)
	assert.Equal(t, "q-1", conflicts[0].RecordID)
	assert.Equal(t, models.ResolutionRemote, conflicts[0].Resolution)
	assert.JSONEq(t, `{"v":"A"}`, string(conflicts[0].Local.Payload))
	assert.JSONEq(t, `{"v":"B"}`, string(conflicts[0].Remote.Payload))

	// conflicts are drained exactly once
	assert.Empty(t, m.TakeConflicts())
}

func TestManagerNewerLocalSurvivesPull(t *testing.T) {
	m, remote, storages := newTestManager(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	local := models.Record{ID: "q-1", Payload: json.RawMessage(`{"v":"newer"}`), CreatedAt: at, UpdatedAt: at.Add(time.Minute)}
	require.NoError(t, storages.Records.ApplyRemote(ctx, models.TableQuests, local))

	stale := models.Record{ID: "q-1", UserID: 42, Payload: json.RawMessage(`{"v":"stale"}`), CreatedAt: at, UpdatedAt: at}
	remote.EXPECT().FetchSince(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, table string, _ *time.Time) ([]models.Record, error) {
			if table == models.TableQuests {
				return []models.Record{stale}, nil
			}
			return nil, nil
		}).Times(len(models.SyncTables()))

	m.runCycle(ctx)

	got, err := storages.Records.Get(ctx, models.TableQuests, "q-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":"newer"}`, string(got.Payload))
	assert.Empty(t, m.TakeConflicts())
}

func TestManagerTablePullFailureIsIsolated(t *testing.T) {
	m, remote, _ := newTestManager(t)
	ctx := context.Background()

	// one table errors on its fetch; the remaining tables still pull
	// and the cycle still completes with syncEnd
	remote.EXPECT().FetchSince(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, table string, _ *time.Time) ([]models.Record, error) {
			if table == models.TableCheckins {
				return nil, errors.New("malformed response")
			}
			return nil, nil
		}).Times(len(models.SyncTables()))

	ended := false
	m.On(EventSyncEnd, func(models.SyncState) { ended = true })

	m.runCycle(ctx)

	assert.True(t, ended)
	// the failed table kept the watermark unset, so the next cycle is
	// full again
	assert.Nil(t, m.State(ctx).LastFullSync)
}

func TestManagerForceFullSync(t *testing.T) {
	m, remote, _ := newTestManager(t)
	ctx := context.Background()

	// establish a watermark with one clean full cycle
	remote.EXPECT().FetchSince(gomock.Any(), gomock.Any(), gomock.Nil()).
		Return(nil, nil).Times(len(models.SyncTables()))
	m.runCycle(ctx)
	require.NotNil(t, m.State(ctx).LastFullSync)

	require.NoError(t, m.ForceFullSync(ctx))

	// the forced cycle fetches with no lower bound again
	remote.EXPECT().FetchSince(gomock.Any(), gomock.Any(), gomock.Nil()).
		Return(nil, nil).Times(len(models.SyncTables()))
	m.runCycle(ctx)
}

func TestManagerDiscardPending(t *testing.T) {
	m, _, storages := newTestManager(t)
	ctx := context.Background()

	saveLocalQuest(t, storages, "q-1", time.Now().UTC(), `{"title":"one"}`)
	saveLocalQuest(t, storages, "q-2", time.Now().UTC(), `{"title":"two"}`)
	require.Equal(t, 2, m.State(ctx).PendingCount)

	require.NoError(t, m.DiscardPending(ctx))
	assert.Equal(t, 0, m.State(ctx).PendingCount)
}

func TestManagerOfflineTriggerQueuedUntilReconnect(t *testing.T) {
	m, _, _ := newTestManager(t)

	m.SetOnline(false)
	m.SyncNow()

	assert.Empty(t, m.trigger)
	m.mu.Lock()
	queued := m.queuedTrigger
	m.mu.Unlock()
	assert.True(t, queued)

	m.SetOnline(true)
	assert.Len(t, m.trigger, 1)
}

func TestManagerGuardsAgainstReentrantCycle(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	started := 0
	m.On(EventSyncStart, func(models.SyncState) { started++ })

	m.mu.Lock()
	m.syncing = true
	m.mu.Unlock()

	m.runCycle(ctx)

	assert.Equal(t, 0, started)
}

// timePtrEq matches a *time.Time pointing at the same instant.
func timePtrEq(want time.Time) gomock.Matcher {
	return timeMatcher{want: want}
}

type timeMatcher struct {
	want time.Time
}

func (m timeMatcher) Matches(x any) bool {
	got, ok := x.(*time.Time)
	if !ok || got == nil {
		return false
	}
	return m.want.Equal(*got)
}

func (m timeMatcher) String() string {
	return "points at " + m.want.Format(time.RFC3339Nano)
}
