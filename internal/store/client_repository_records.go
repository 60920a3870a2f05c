package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/questlog-app/questlog/internal/logger"
	"github.com/questlog-app/questlog/models"
)

// localRecordRepository is the SQLite-backed [LocalRecordRepository].
//
// Its write methods pair the record mutation with the matching
// pending-change row inside one transaction. That pairing is the
// durability guarantee the sync engine depends on: after a crash the
// device either has both the new record state and the queued push, or
// neither.
type localRecordRepository struct {
	*LocalDB
	logger *logger.Logger
}

// NewLocalRecordRepository constructs a [LocalRecordRepository] backed
// by the provided local database and logger.
func NewLocalRecordRepository(db *LocalDB, logger *logger.Logger) LocalRecordRepository {
	return &localRecordRepository{
		LocalDB: db,
		logger:  logger,
	}
}

// Get retrieves one record by table and id, including soft-deleted rows
// (the sync engine needs the local timestamp of a deleted row to resolve
// against a remote version). Returns ErrRecordNotFound when absent.
func (r *localRecordRepository) Get(ctx context.Context, table, id string) (models.Record, error) {
	row := r.DB.QueryRowContext(ctx, getRecord, table, id)

	rec, err := scanLocalRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Record{}, ErrRecordNotFound
		}
		return models.Record{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return rec, nil
}

// List returns all live (not soft-deleted) records of one table, newest
// first.
func (r *localRecordRepository) List(ctx context.Context, table string) ([]models.Record, error) {
	log := logger.FromContext(ctx)

	rows, err := r.DB.QueryContext(ctx, listRecords, table)
	if err != nil {
		log.Err(err).Str("func", "localRecordRepository.List").Str("table", table).
			Msg("failed to execute query for listing local records")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var results []models.Record
	for rows.Next() {
		rec, scanErr := scanLocalRecord(rows)
		if scanErr != nil {
			log.Err(scanErr).Str("func", "localRecordRepository.List").Str("table", table).
				Msg("failed to scan local record row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}
		results = append(results, rec)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return results, nil
}

// SaveLocal upserts a record and its pending change in one transaction.
func (r *localRecordRepository) SaveLocal(ctx context.Context, table string, rec models.Record) error {
	log := logger.FromContext(ctx)

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode pending snapshot: %w", err)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "localRecordRepository.SaveLocal").Msg("failed to open transaction")
		return fmt.Errorf("%w: %w", ErrOpeningTx, err)
	}
	defer tx.Rollback()

	deleted := 0
	if rec.Deleted {
		deleted = 1
	}
	if _, err = tx.ExecContext(ctx, upsertRecord,
		table, rec.ID, string(rec.Payload), rec.CreatedAt, rec.UpdatedAt, deleted,
	); err != nil {
		log.Err(err).Str("func", "localRecordRepository.SaveLocal").Str("table", table).
			Str("record_id", rec.ID).Msg("failed to upsert local record")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	if _, err = tx.ExecContext(ctx, upsertPendingChange,
		table, rec.ID, models.OpUpsert, string(payload), rec.UpdatedAt,
	); err != nil {
		log.Err(err).Str("func", "localRecordRepository.SaveLocal").Str("table", table).
			Str("record_id", rec.ID).Msg("failed to record pending change")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCommittingTx, err)
	}

	return nil
}

// DeleteLocal soft-deletes a record and queues the delete in one
// transaction. The queued delete supersedes any queued upsert for the
// same record.
func (r *localRecordRepository) DeleteLocal(ctx context.Context, table, id string, at time.Time) error {
	log := logger.FromContext(ctx)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "localRecordRepository.DeleteLocal").Msg("failed to open transaction")
		return fmt.Errorf("%w: %w", ErrOpeningTx, err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, markRecordDeleted, at, table, id); err != nil {
		log.Err(err).Str("func", "localRecordRepository.DeleteLocal").Str("table", table).
			Str("record_id", id).Msg("failed to mark local record deleted")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	if _, err = tx.ExecContext(ctx, upsertPendingChange,
		table, id, models.OpDelete, nil, at,
	); err != nil {
		log.Err(err).Str("func", "localRecordRepository.DeleteLocal").Str("table", table).
			Str("record_id", id).Msg("failed to record pending delete")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCommittingTx, err)
	}

	return nil
}

// ApplyRemote writes a remote winner without touching the pending queue.
// Used exclusively by the sync engine's pull-apply step.
func (r *localRecordRepository) ApplyRemote(ctx context.Context, table string, rec models.Record) error {
	log := logger.FromContext(ctx)

	deleted := 0
	if rec.Deleted {
		deleted = 1
	}
	if _, err := r.DB.ExecContext(ctx, upsertRecord,
		table, rec.ID, string(rec.Payload), rec.CreatedAt, rec.UpdatedAt, deleted,
	); err != nil {
		log.Err(err).Str("func", "localRecordRepository.ApplyRemote").Str("table", table).
			Str("record_id", rec.ID).Msg("failed to apply remote record")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanLocalRecord(s scanner) (models.Record, error) {
	var (
		rec     models.Record
		payload string
		deleted int
	)

	if err := s.Scan(&rec.ID, &payload, &rec.CreatedAt, &rec.UpdatedAt, &deleted); err != nil {
		return models.Record{}, err
	}

	rec.Payload = json.RawMessage(payload)
	rec.Deleted = deleted != 0

	return rec, nil
}
