package store

import (
	"context"

	"github.com/questlog-app/questlog/internal/config"
	"github.com/questlog-app/questlog/internal/logger"
)

// Storages bundles the server-side repositories sharing one database
// connection.
type Storages struct {
	db      *DB
	Users   UserRepository
	Records RecordRepository
}

// NewStorages connects to PostgreSQL, runs pending migrations and wires
// the repositories.
func NewStorages(ctx context.Context, cfg config.DB, log *logger.Logger) (*Storages, error) {
	db, err := NewConnectPostgres(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	return &Storages{
		db:      db,
		Users:   NewUserRepository(db, log),
		Records: NewRecordRepository(db, log),
	}, nil
}

// Close releases the underlying database connection.
func (s *Storages) Close() error {
	return s.db.Close()
}
