package service

import (
	"context"
	"encoding/json"

	"github.com/questlog-app/questlog/models"
)

// ClientRecordService is the repository surface the gamification/domain
// layer uses on the device. Every write routes through the local store's
// change tracking, which is the sole contract the domain layer must
// uphold for sync correctness; the domain never talks to the server
// directly.
type ClientRecordService interface {
	// Create stores a new record with a freshly generated id and
	// returns it.
	Create(ctx context.Context, table string, payload json.RawMessage) (models.Record, error)

	// Update overwrites an existing record's payload with a fresh
	// last-modified timestamp.
	Update(ctx context.Context, table, id string, payload json.RawMessage) (models.Record, error)

	// Get returns one record by id, including a soft-deleted one.
	Get(ctx context.Context, table, id string) (models.Record, error)

	// List returns the table's live records, newest first.
	List(ctx context.Context, table string) ([]models.Record, error)

	// Delete soft-deletes one record.
	Delete(ctx context.Context, table, id string) error

	// PendingCount reports how many local changes await push.
	PendingCount(ctx context.Context) (int, error)
}
