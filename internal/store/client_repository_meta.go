package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/questlog-app/questlog/internal/logger"
)

const (
	metaLastFullSync = "last_full_sync"
	metaCursorPrefix = "cursor:"
)

// syncMetaRepository is the SQLite-backed [SyncMetaRepository].
// Timestamps are stored as RFC3339Nano strings in the sync_meta
// key/value table.
type syncMetaRepository struct {
	*LocalDB
	logger *logger.Logger
}

// NewSyncMetaRepository constructs a [SyncMetaRepository] backed by the
// provided local database and logger.
func NewSyncMetaRepository(db *LocalDB, logger *logger.Logger) SyncMetaRepository {
	return &syncMetaRepository{
		LocalDB: db,
		logger:  logger,
	}
}

func (r *syncMetaRepository) LastFullSync(ctx context.Context) (*time.Time, error) {
	return r.getTime(ctx, metaLastFullSync)
}

func (r *syncMetaRepository) SetLastFullSync(ctx context.Context, t time.Time) error {
	return r.setTime(ctx, metaLastFullSync, t)
}

func (r *syncMetaRepository) ClearLastFullSync(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, deleteSyncMeta, metaLastFullSync); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return nil
}

func (r *syncMetaRepository) Cursor(ctx context.Context, table string) (*time.Time, error) {
	return r.getTime(ctx, metaCursorPrefix+table)
}

func (r *syncMetaRepository) SetCursor(ctx context.Context, table string, t time.Time) error {
	return r.setTime(ctx, metaCursorPrefix+table, t)
}

func (r *syncMetaRepository) getTime(ctx context.Context, key string) (*time.Time, error) {
	var value string
	err := r.DB.QueryRowContext(ctx, getSyncMeta, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return nil, fmt.Errorf("decode sync meta %q: %w", key, err)
	}
	return &t, nil
}

func (r *syncMetaRepository) setTime(ctx context.Context, key string, t time.Time) error {
	if _, err := r.DB.ExecContext(ctx, setSyncMeta, key, t.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return nil
}
