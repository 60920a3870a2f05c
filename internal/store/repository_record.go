package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/questlog-app/questlog/internal/logger"
	"github.com/questlog-app/questlog/models"
)

// recordRepository is the PostgreSQL-backed implementation of
// [RecordRepository]. It executes all record operations against the
// "records" table using the embedded [*DB] connection.
//
// Every public method obtains a context-scoped logger via
// [logger.FromContext] so that all database interactions are traced
// with structured fields (user_id, table, record id).
type recordRepository struct {
	*DB
	logger *logger.Logger
}

// NewRecordRepository constructs a [RecordRepository] backed by the
// provided database connection and logger.
func NewRecordRepository(db *DB, logger *logger.Logger) RecordRepository {
	return &recordRepository{
		DB:     db,
		logger: logger,
	}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// FetchSince implements [RecordRepository]. The optional since bound is
// strict (updated_at > since) so rows already seen by the client are
// not re-sent; ordering is updated_at descending.
func (p *recordRepository) FetchSince(ctx context.Context, userID int64, table string, since *time.Time) ([]models.Record, error) {
	log := logger.FromContext(ctx)

	builder := psql.
		Select("id", "user_id", "payload", "created_at", "updated_at", "deleted").
		From("records").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.Eq{"tbl": table}).
		OrderBy("updated_at DESC")
	if since != nil {
		builder = builder.Where(sq.Gt{"updated_at": *since})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		log.Err(err).Str("func", "recordRepository.FetchSince").Int64("user_id", userID).
			Str("table", table).Msg("failed to build fetch query")
		return nil, fmt.Errorf("%w: %w", ErrBuildingQuery, err)
	}

	rows, err := p.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "recordRepository.FetchSince").Int64("user_id", userID).
			Str("table", table).Msg("failed to execute fetch query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	results := make([]models.Record, 0, 50)
	for rows.Next() {
		var (
			rec     models.Record
			payload []byte
		)
		if scanErr := rows.Scan(&rec.ID, &rec.UserID, &payload, &rec.CreatedAt, &rec.UpdatedAt, &rec.Deleted); scanErr != nil {
			log.Err(scanErr).Str("func", "recordRepository.FetchSince").Int64("user_id", userID).
				Msg("failed to scan record row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}
		rec.Payload = json.RawMessage(payload)
		results = append(results, rec)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).Str("func", "recordRepository.FetchSince").Int64("user_id", userID).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return results, nil
}

// Upsert implements [RecordRepository]. The server stamps updated_at
// with its own clock on every accepted write, making it the
// authoritative recency signal for conflict resolution.
func (p *recordRepository) Upsert(ctx context.Context, userID int64, table string, rec models.Record) (models.Record, error) {
	log := logger.FromContext(ctx)

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query, args, err := psql.
		Insert("records").
		Columns("user_id", "tbl", "id", "payload", "created_at", "updated_at", "deleted").
		Values(userID, table, rec.ID, []byte(rec.Payload), createdAt, sq.Expr("now()"), rec.Deleted).
		Suffix(`ON CONFLICT (user_id, tbl, id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now(), deleted = EXCLUDED.deleted RETURNING id, user_id, payload, created_at, updated_at, deleted`).
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "recordRepository.Upsert").Int64("user_id", userID).
			Str("table", table).Msg("failed to build upsert query")
		return models.Record{}, fmt.Errorf("%w: %w", ErrBuildingQuery, err)
	}

	var (
		persisted models.Record
		payload   []byte
	)
	err = p.DB.QueryRowContext(ctx, query, args...).
		Scan(&persisted.ID, &persisted.UserID, &payload, &persisted.CreatedAt, &persisted.UpdatedAt, &persisted.Deleted)
	if err != nil {
		log.Err(err).Str("func", "recordRepository.Upsert").Int64("user_id", userID).
			Str("table", table).Str("record_id", rec.ID).Str("pg_code", postgresErrorCode(err)).
			Msg("failed to execute upsert")
		return models.Record{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	persisted.Payload = json.RawMessage(payload)

	return persisted, nil
}

// Delete implements [RecordRepository]. The row is soft-deleted with a
// fresh updated_at so the deletion propagates to other devices through
// the normal pull path. Deleting an absent id is a success.
func (p *recordRepository) Delete(ctx context.Context, userID int64, table, id string) (bool, error) {
	log := logger.FromContext(ctx)

	query, args, err := psql.
		Update("records").
		Set("deleted", true).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"user_id": userID}).
		Where(sq.Eq{"tbl": table}).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "recordRepository.Delete").Int64("user_id", userID).
			Str("table", table).Msg("failed to build delete query")
		return false, fmt.Errorf("%w: %w", ErrBuildingQuery, err)
	}

	if _, err = p.DB.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).Str("func", "recordRepository.Delete").Int64("user_id", userID).
			Str("table", table).Str("record_id", id).Msg("failed to execute delete")
		return false, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return true, nil
}
