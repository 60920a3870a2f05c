package service

import (
	"context"
	"time"

	"github.com/questlog-app/questlog/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/service_mock.go -package=mock

// AuthService handles account registration, credential verification and
// JWT token lifecycle on the server.
type AuthService interface {
	// RegisterUser creates an account. The password is hashed before it
	// reaches storage; the plaintext is never persisted.
	RegisterUser(ctx context.Context, user models.User) (models.User, error)

	// Login verifies the credentials and returns the stored account.
	Login(ctx context.Context, user models.User) (models.User, error)

	// CreateToken issues a signed JWT whose subject is the account id.
	CreateToken(ctx context.Context, user models.User) (models.Token, error)

	// ParseToken validates a raw JWT string and returns the decoded
	// token. Any validation failure is normalised to
	// ErrTokenIsExpiredOrInvalid.
	ParseToken(ctx context.Context, tokenString string) (models.Token, error)
}

// RecordService is the server-side record surface behind the sync API.
// Every operation is scoped to one account; cross-account access is
// structurally impossible.
type RecordService interface {
	// FetchSince returns the account's records of one table changed
	// strictly after since, newest first, tombstones included.
	FetchSince(ctx context.Context, userID int64, table string, since *time.Time) ([]models.Record, error)

	// Upsert persists one record with a fresh server-side UpdatedAt and
	// notifies the account's other devices.
	Upsert(ctx context.Context, userID int64, table string, rec models.Record) (models.Record, error)

	// Delete soft-deletes one record and notifies the account's other
	// devices. Deleting an absent id succeeds.
	Delete(ctx context.Context, userID int64, table, id string) (bool, error)
}

// ChangePublisher fans a committed change out to the account's connected
// realtime subscribers. Implementations must not block the publishing
// request.
type ChangePublisher interface {
	Publish(userID int64, event models.ChangeEvent)
}
