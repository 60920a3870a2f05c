package store

import (
	"context"
	"fmt"

	"github.com/questlog-app/questlog/internal/config"
	"github.com/questlog-app/questlog/internal/logger"
)

// ClientStorages aggregates the client-side repositories over one local
// SQLite database.
type ClientStorages struct {
	db      *LocalDB
	Records LocalRecordRepository
	Pending PendingChangeRepository
	Meta    SyncMetaRepository
}

// NewClientStorages opens and migrates the local database and wires the
// client repositories over it.
func NewClientStorages(ctx context.Context, cfg config.ClientStorage, log *logger.Logger) (*ClientStorages, error) {
	db, err := NewConnectSQLite(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("connect local database: %w", err)
	}

	return &ClientStorages{
		db:      db,
		Records: NewLocalRecordRepository(db, log),
		Pending: NewPendingChangeRepository(db, log),
		Meta:    NewSyncMetaRepository(db, log),
	}, nil
}

// Close releases the underlying local database connection.
func (s *ClientStorages) Close() error {
	return s.db.Close()
}
