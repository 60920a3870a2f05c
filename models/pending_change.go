package models

import (
	"encoding/json"
	"time"
)

// Operation kinds recorded in the pending-change queue.
const (
	OpUpsert = "upsert"
	OpDelete = "delete"
)

// PendingChange is a durable record of one local mutation that has not
// yet been confirmed by the server. It is written in the same local
// transaction as the mutation itself, so a crash cannot apply a change
// without also remembering that it must be pushed.
//
// At most one entry exists per (Table, RecordID): a newer local edit
// supersedes the queued payload, and a delete supersedes a queued
// upsert. The Seq of the first entry is kept on supersede so the queue
// position of an entity never moves backwards past later entities.
type PendingChange struct {
	// Seq is the queue position. Assigned by the local store in
	// insertion order; the push phase drains strictly ascending.
	Seq int64 `json:"seq"`

	// Table is the entity set the change belongs to.
	Table string `json:"table"`

	// RecordID identifies the mutated record.
	RecordID string `json:"record_id"`

	// Op is OpUpsert or OpDelete.
	Op string `json:"op"`

	// Payload is the full record snapshot for an upsert; empty for a
	// delete.
	Payload json.RawMessage `json:"payload,omitempty"`

	// CreatedAt is when the local mutation happened.
	CreatedAt time.Time `json:"created_at"`
}
