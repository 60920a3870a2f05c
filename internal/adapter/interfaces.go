// Package adapter provides the transport layer between a device and the
// sync server.
//
// The primary abstraction is [RemoteStore], which decouples the sync
// engine from the underlying protocol. The package ships an HTTP/REST
// implementation ([NewHTTPRemoteStore]) for record operations and a
// WebSocket client for the realtime change feed.
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] for transport-agnostic
// error handling (e.g. [ErrUnavailable] for a down server,
// [ErrUnauthorized] for 401).
package adapter

import (
	"context"
	"time"

	"github.com/questlog-app/questlog/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/remote_store_mock.go -package=mock

// RemoteStore defines transport-agnostic communication with the sync
// server. Implementations are responsible for serialisation,
// authentication header management, and mapping transport-level errors
// to the sentinel values defined in this package.
type RemoteStore interface {
	// SetToken stores the bearer token attached to all subsequent
	// authenticated requests. Called after a successful Register or
	// Login.
	SetToken(token string)

	// Token returns the bearer token currently stored in the adapter,
	// or an empty string if no token has been set yet.
	Token() string

	// Register creates an account with the provided credentials. On
	// success the returned bearer token is stored via SetToken.
	Register(ctx context.Context, user models.User) (models.Token, error)

	// Login authenticates the user. On success the returned bearer
	// token is stored via SetToken.
	Login(ctx context.Context, user models.User) (models.Token, error)

	// FetchSince returns the account's records of one table changed
	// strictly after since, newest first, tombstones included. A nil
	// since fetches the full table.
	FetchSince(ctx context.Context, table string, since *time.Time) ([]models.Record, error)

	// Upsert writes one record and returns the persisted row carrying
	// the server-stamped UpdatedAt.
	Upsert(ctx context.Context, table string, rec models.Record) (models.Record, error)

	// Delete soft-deletes one record and returns the server's deleted
	// flag. Deleting an absent id succeeds, so retries are safe.
	Delete(ctx context.Context, table, id string) (bool, error)

	// Ping probes server reachability without touching any records.
	Ping(ctx context.Context) error

	// Subscribe opens the realtime change feed. The returned
	// subscription delivers one event per record committed by another
	// device of the same account until Close is called or the
	// connection drops.
	Subscribe(ctx context.Context) (RealtimeSubscription, error)
}

// RealtimeSubscription is one live connection to the server's change
// feed.
type RealtimeSubscription interface {
	// Events returns the channel the feed delivers on. The channel is
	// closed when the connection ends for any reason.
	Events() <-chan models.ChangeEvent

	// Err reports why the events channel closed. It returns nil before
	// the channel is closed and after a clean Close.
	Err() error

	// Close terminates the subscription and releases the connection.
	Close() error
}
