package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/questlog-app/questlog/internal/logger"
	"github.com/questlog-app/questlog/models"
)

// pendingChangeRepository is the SQLite-backed [PendingChangeRepository].
type pendingChangeRepository struct {
	*LocalDB
	logger *logger.Logger
}

// NewPendingChangeRepository constructs a [PendingChangeRepository]
// backed by the provided local database and logger.
func NewPendingChangeRepository(db *LocalDB, logger *logger.Logger) PendingChangeRepository {
	return &pendingChangeRepository{
		LocalDB: db,
		logger:  logger,
	}
}

// All returns every queued change in insertion (seq) order. The push
// phase walks the result front to back and stops at the first failure,
// so local causal order is preserved on the wire.
func (r *pendingChangeRepository) All(ctx context.Context) ([]models.PendingChange, error) {
	log := logger.FromContext(ctx)

	rows, err := r.DB.QueryContext(ctx, listPendingChanges)
	if err != nil {
		log.Err(err).Str("func", "pendingChangeRepository.All").
			Msg("failed to execute query for listing pending changes")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var results []models.PendingChange
	for rows.Next() {
		var (
			pc      models.PendingChange
			payload sql.NullString
		)
		if scanErr := rows.Scan(&pc.Seq, &pc.Table, &pc.RecordID, &pc.Op, &payload, &pc.CreatedAt); scanErr != nil {
			log.Err(scanErr).Str("func", "pendingChangeRepository.All").
				Msg("failed to scan pending change row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}
		if payload.Valid {
			pc.Payload = []byte(payload.String)
		}
		results = append(results, pc)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return results, nil
}

// Remove deletes one confirmed entry, but only while it still carries the
// drained snapshot identified by createdAt. An entry superseded mid-flight
// has a refreshed created_at and stays queued.
func (r *pendingChangeRepository) Remove(ctx context.Context, seq int64, createdAt time.Time) error {
	if _, err := r.DB.ExecContext(ctx, removePendingChange, seq, createdAt); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return nil
}

// Count returns the current queue depth.
func (r *pendingChangeRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, countPendingChanges).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	return n, nil
}

// Clear abandons the whole queue. Only the discard-pending reset uses it.
func (r *pendingChangeRepository) Clear(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, clearPendingChanges); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return nil
}
