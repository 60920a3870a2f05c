package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/questlog-app/questlog/internal/config"
	"github.com/questlog-app/questlog/internal/logger"
	"github.com/questlog-app/questlog/migrations"
)

// LocalDB wraps the client's SQLite connection.
type LocalDB struct {
	*sql.DB
	logger *logger.Logger
}

// NewConnectSQLite opens (creating the parent directory when needed) and
// migrates the client's local SQLite database. The busy timeout keeps
// concurrent sync-engine and domain writes from failing immediately on
// a locked database.
func NewConnectSQLite(ctx context.Context, cfg config.ClientStorage, log *logger.Logger) (*LocalDB, error) {
	dir := filepath.Dir(cfg.Path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create local storage dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", cfg.Path)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error occured during local database connection")
		return nil, fmt.Errorf("error occured during local database connection: %w", err)
	}

	// SQLite serializes writers; a single connection avoids lock churn.
	conn.SetMaxOpenConns(1)

	if err = conn.PingContext(ctx); err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error connecting local database (ping)")
		return nil, err
	}

	if err = migrations.MigrateClient(conn); err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error migrating local database")
		return nil, err
	}
	log.Info().Str("func", "NewConnectSQLite").Str("path", cfg.Path).Msg("local database ready")

	return &LocalDB{DB: conn, logger: log}, nil
}
