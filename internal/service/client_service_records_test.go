package service

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/questlog-app/questlog/internal/config"
	"github.com/questlog-app/questlog/internal/logger"
	"github.com/questlog-app/questlog/internal/store"
	"github.com/questlog-app/questlog/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClientRecordFixture(t *testing.T) ClientRecordService {
	t.Helper()
	cfg := config.ClientStorage{Path: filepath.Join(t.TempDir(), "questlog.db")}
	storages, err := store.NewClientStorages(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { storages.Close() })

	return NewClientRecordService(storages, 42)
}

func TestClientRecordServiceLifecycle(t *testing.T) {
	svc := newClientRecordFixture(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, models.TableQuests, json.RawMessage(`{"title":"write tests"}`))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, int64(42), created.UserID)
	assert.False(t, created.UpdatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	// a second device would see a distinct id
	other, err := svc.Create(ctx, models.TableQuests, json.RawMessage(`{"title":"other"}`))
	require.NoError(t, err)
	assert.NotEqual(t, created.ID, other.ID)

	updated, err := svc.Update(ctx, models.TableQuests, created.ID, json.RawMessage(`{"title":"write tests","done":true}`))
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt) || updated.UpdatedAt.Equal(created.UpdatedAt))

	got, err := svc.Get(ctx, models.TableQuests, created.ID)
	require.NoError(t, err)
	assert.JSONEq(t, string(updated.Payload), string(got.Payload))

	list, err := svc.List(ctx, models.TableQuests)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, svc.Delete(ctx, models.TableQuests, created.ID))

	list, err = svc.List(ctx, models.TableQuests)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, other.ID, list[0].ID)

	// create + update coalesce per record, so the queue holds one entry
	// per touched record: created (now a delete) and other
	count, err := svc.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestClientRecordServiceValidation(t *testing.T) {
	svc := newClientRecordFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "vaults", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrUnknownTable)

	_, err = svc.Update(ctx, models.TableQuests, "", nil)
	assert.ErrorIs(t, err, ErrNoRecordID)

	_, err = svc.Update(ctx, models.TableQuests, "missing", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, store.ErrRecordNotFound)

	err = svc.Delete(ctx, models.TableQuests, "")
	assert.ErrorIs(t, err, ErrNoRecordID)

	_, err = svc.List(ctx, "vaults")
	assert.ErrorIs(t, err, ErrUnknownTable)
}
