package store

import (
	"context"
	"time"

	"github.com/questlog-app/questlog/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/server_store_mock.go -package=mock

// UserRepository is the server-side account store.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByLogin(ctx context.Context, login string) (models.User, error)
}

// RecordRepository is the server-side record store. All operations are
// scoped by the owning account; rows of other accounts are structurally
// unreachable.
type RecordRepository interface {
	// FetchSince returns the account's rows of one table with
	// updated_at strictly greater than since, newest first. A nil
	// since returns the full set (full sync), including soft-deleted
	// rows so offline devices learn about deletions.
	FetchSince(ctx context.Context, userID int64, table string, since *time.Time) ([]models.Record, error)

	// Upsert writes the record with a fresh server-side updated_at and
	// returns the persisted row.
	Upsert(ctx context.Context, userID int64, table string, rec models.Record) (models.Record, error)

	// Delete soft-deletes a row. Idempotent: deleting an absent id
	// succeeds so client retries stay safe.
	Delete(ctx context.Context, userID int64, table, id string) (bool, error)
}
