package store

import (
	"context"
	"time"

	"github.com/questlog-app/questlog/models"
)

//go:generate mockgen -source=client_interfaces.go -destination=../mock/client_store_mock.go -package=mock

// LocalRecordRepository is the durable record store on the device.
//
// SaveLocal and DeleteLocal implement the change-tracking contract: the
// record mutation and its pending-change entry are written in one SQLite
// transaction, so the mutation can never be observed without the fact
// that it must still be pushed. ApplyRemote bypasses the queue — it is
// reserved for the sync engine's pull-apply step.
type LocalRecordRepository interface {
	Get(ctx context.Context, table, id string) (models.Record, error)
	List(ctx context.Context, table string) ([]models.Record, error)
	SaveLocal(ctx context.Context, table string, rec models.Record) error
	DeleteLocal(ctx context.Context, table, id string, at time.Time) error
	ApplyRemote(ctx context.Context, table string, rec models.Record) error
}

// PendingChangeRepository is the durable queue of unsynced local
// mutations, drained in Seq order by the push phase. Remove takes the
// createdAt of the drained snapshot so an entry superseded while in
// flight is never removed unconfirmed.
type PendingChangeRepository interface {
	All(ctx context.Context) ([]models.PendingChange, error)
	Remove(ctx context.Context, seq int64, createdAt time.Time) error
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// SyncMetaRepository persists the sync engine's bookkeeping: the last
// successful full-sync instant and the per-table incremental pull
// cursors. All values survive restarts.
type SyncMetaRepository interface {
	LastFullSync(ctx context.Context) (*time.Time, error)
	SetLastFullSync(ctx context.Context, t time.Time) error
	ClearLastFullSync(ctx context.Context) error
	Cursor(ctx context.Context, table string) (*time.Time, error)
	SetCursor(ctx context.Context, table string, t time.Time) error
}
