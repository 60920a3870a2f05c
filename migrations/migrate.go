// Package migrations embeds the goose SQL migrations for both storage
// backends: the server's PostgreSQL database and the client's local
// SQLite database.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed server/*.sql
var serverMigrations embed.FS

//go:embed client/*.sql
var clientMigrations embed.FS

// MigrateServer applies all pending server migrations to db.
func MigrateServer(db *sql.DB) error {
	goose.SetBaseFS(serverMigrations)

	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("migration error setting dialect for db: %w", err)
	}

	if err := goose.Up(db, "server"); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	return nil
}

// MigrateClient applies all pending local-store migrations to db.
func MigrateClient(db *sql.DB) error {
	goose.SetBaseFS(clientMigrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("migration error setting dialect for local db: %w", err)
	}

	if err := goose.Up(db, "client"); err != nil {
		return fmt.Errorf("local migration error: %w", err)
	}

	return nil
}
