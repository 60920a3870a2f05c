package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/questlog-app/questlog/internal/store"
	"github.com/questlog-app/questlog/internal/utils"
	"github.com/questlog-app/questlog/models"
)

type clientRecordService struct {
	storages *store.ClientStorages
	uuids    *utils.UUIDGenerator
	userID   int64
}

// NewClientRecordService constructs the device-side record repository
// for one authenticated account.
func NewClientRecordService(storages *store.ClientStorages, userID int64) ClientRecordService {
	return &clientRecordService{
		storages: storages,
		uuids:    utils.NewUUIDGenerator(),
		userID:   userID,
	}
}

// Create implements [ClientRecordService]. The id is generated on this
// device and stays stable across all devices of the account.
func (s *clientRecordService) Create(ctx context.Context, table string, payload json.RawMessage) (models.Record, error) {
	if !models.KnownTable(table) {
		return models.Record{}, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}

	now := time.Now().UTC()
	rec := models.Record{
		ID:        s.uuids.Generate(),
		UserID:    s.userID,
		Payload:   payload,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.storages.Records.SaveLocal(ctx, table, rec); err != nil {
		return models.Record{}, fmt.Errorf("save created record: %w", err)
	}

	return rec, nil
}

// Update implements [ClientRecordService].
func (s *clientRecordService) Update(ctx context.Context, table, id string, payload json.RawMessage) (models.Record, error) {
	if !models.KnownTable(table) {
		return models.Record{}, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	if id == "" {
		return models.Record{}, ErrNoRecordID
	}

	rec, err := s.storages.Records.Get(ctx, table, id)
	if err != nil {
		return models.Record{}, fmt.Errorf("load record for update: %w", err)
	}

	rec.Payload = payload
	rec.UpdatedAt = time.Now().UTC()
	rec.Deleted = false

	if err = s.storages.Records.SaveLocal(ctx, table, rec); err != nil {
		return models.Record{}, fmt.Errorf("save updated record: %w", err)
	}

	return rec, nil
}

// Get implements [ClientRecordService].
func (s *clientRecordService) Get(ctx context.Context, table, id string) (models.Record, error) {
	if !models.KnownTable(table) {
		return models.Record{}, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}

	return s.storages.Records.Get(ctx, table, id)
}

// List implements [ClientRecordService].
func (s *clientRecordService) List(ctx context.Context, table string) ([]models.Record, error) {
	if !models.KnownTable(table) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}

	return s.storages.Records.List(ctx, table)
}

// Delete implements [ClientRecordService]. The deletion is local-first:
// it lands in the pending queue and reaches the server on the next push.
func (s *clientRecordService) Delete(ctx context.Context, table, id string) error {
	if !models.KnownTable(table) {
		return fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	if id == "" {
		return ErrNoRecordID
	}

	return s.storages.Records.DeleteLocal(ctx, table, id, time.Now().UTC())
}

// PendingCount implements [ClientRecordService].
func (s *clientRecordService) PendingCount(ctx context.Context) (int, error) {
	return s.storages.Pending.Count(ctx)
}
