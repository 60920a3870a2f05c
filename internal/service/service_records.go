package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/questlog-app/questlog/internal/logger"
	"github.com/questlog-app/questlog/internal/store"
	"github.com/questlog-app/questlog/models"
)

// recordService is the concrete implementation of [RecordService]. It
// validates requests, delegates persistence to the RecordRepository,
// and publishes committed changes to the realtime hub.
type recordService struct {
	records   store.RecordRepository
	publisher ChangePublisher
	logger    *logger.Logger
}

// NewRecordService constructs a [RecordService]. publisher may be a
// no-op implementation when realtime notifications are disabled.
func NewRecordService(records store.RecordRepository, publisher ChangePublisher, logger *logger.Logger) RecordService {
	return &recordService{
		records:   records,
		publisher: publisher,
		logger:    logger,
	}
}

// FetchSince implements [RecordService].
//
// Returns ErrUnknownTable for a table outside the synchronized set.
func (s *recordService) FetchSince(ctx context.Context, userID int64, table string, since *time.Time) ([]models.Record, error) {
	if !models.KnownTable(table) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}

	records, err := s.records.FetchSince(ctx, userID, table, since)
	if err != nil {
		return nil, fmt.Errorf("fetch records: %w", err)
	}

	return records, nil
}

// Upsert implements [RecordService]. The repository stamps a fresh
// server-side UpdatedAt; the persisted row is returned to the caller
// and announced to the account's other devices.
func (s *recordService) Upsert(ctx context.Context, userID int64, table string, rec models.Record) (models.Record, error) {
	log := logger.FromContext(ctx)

	if !models.KnownTable(table) {
		return models.Record{}, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	if rec.ID == "" {
		return models.Record{}, ErrNoRecordID
	}
	if len(rec.Payload) == 0 {
		rec.Payload = json.RawMessage("{}")
	}

	persisted, err := s.records.Upsert(ctx, userID, table, rec)
	if err != nil {
		log.Err(err).Str("table", table).Str("record_id", rec.ID).Msg("record upsert failed")
		return models.Record{}, fmt.Errorf("upsert record: %w", err)
	}

	s.publisher.Publish(userID, models.ChangeEvent{
		Table:     table,
		RecordID:  persisted.ID,
		Op:        models.OpUpsert,
		UpdatedAt: persisted.UpdatedAt,
	})

	return persisted, nil
}

// Delete implements [RecordService]. Absent ids succeed so client
// retries stay idempotent.
func (s *recordService) Delete(ctx context.Context, userID int64, table, id string) (bool, error) {
	log := logger.FromContext(ctx)

	if !models.KnownTable(table) {
		return false, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	if id == "" {
		return false, ErrNoRecordID
	}

	deleted, err := s.records.Delete(ctx, userID, table, id)
	if err != nil {
		log.Err(err).Str("table", table).Str("record_id", id).Msg("record delete failed")
		return false, fmt.Errorf("delete record: %w", err)
	}

	s.publisher.Publish(userID, models.ChangeEvent{
		Table:     table,
		RecordID:  id,
		Op:        models.OpDelete,
		UpdatedAt: time.Now().UTC(),
	})

	return deleted, nil
}
