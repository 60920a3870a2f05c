package sync

import (
	"testing"

	"github.com/questlog-app/questlog/internal/logger"
	"github.com/questlog-app/questlog/models"
	"github.com/stretchr/testify/assert"
)

func TestObserverRegistry(t *testing.T) {
	t.Run("handlers receive the emitted state", func(t *testing.T) {
		reg := newObserverRegistry(logger.Nop())

		var got []models.SyncState
		reg.on(EventSyncStart, func(state models.SyncState) {
			got = append(got, state)
		})

		reg.emit(EventSyncStart, models.SyncState{Syncing: true, PendingCount: 3})
		require := assert.New(t)
		require.Len(got, 1)
		require.True(got[0].Syncing)
		require.Equal(3, got[0].PendingCount)
	})

	t.Run("unsubscribe stops delivery and is idempotent", func(t *testing.T) {
		reg := newObserverRegistry(logger.Nop())

		calls := 0
		off := reg.on(EventSyncEnd, func(models.SyncState) { calls++ })

		reg.emit(EventSyncEnd, models.SyncState{})
		off()
		off()
		reg.emit(EventSyncEnd, models.SyncState{})

		assert.Equal(t, 1, calls)
	})

	t.Run("events are independent", func(t *testing.T) {
		reg := newObserverRegistry(logger.Nop())

		starts, ends := 0, 0
		reg.on(EventSyncStart, func(models.SyncState) { starts++ })
		reg.on(EventSyncEnd, func(models.SyncState) { ends++ })

		reg.emit(EventSyncStart, models.SyncState{})

		assert.Equal(t, 1, starts)
		assert.Equal(t, 0, ends)
	})

	t.Run("panicking observer is isolated", func(t *testing.T) {
		reg := newObserverRegistry(logger.Nop())

		survived := 0
		reg.on(EventConflict, func(models.SyncState) { panic("observer bug") })
		reg.on(EventConflict, func(models.SyncState) { survived++ })

		assert.NotPanics(t, func() {
			reg.emit(EventConflict, models.SyncState{})
		})
		assert.Equal(t, 1, survived)
	})
}
