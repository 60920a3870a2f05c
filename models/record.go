package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// Table names of all entity sets that participate in synchronization.
const (
	TableCharacters    = "characters"
	TableCheckins      = "checkins"
	TableQuests        = "quests"
	TableStudySessions = "study_sessions"
)

// SyncTables returns the fixed set of synchronized tables in the order
// the pull phase walks them. The order carries no semantic weight; tables
// are independent.
func SyncTables() []string {
	return []string{TableCharacters, TableCheckins, TableQuests, TableStudySessions}
}

// KnownTable reports whether name is one of the synchronized tables.
// Transport layers use it to reject requests for arbitrary table names.
func KnownTable(name string) bool {
	switch name {
	case TableCharacters, TableCheckins, TableQuests, TableStudySessions:
		return true
	}
	return false
}

// Record is a single syncable entity row: a character sheet, a daily
// check-in, a quest, or a study session.
//
// The record identifier is generated on the device that creates the row
// and is stable across all devices of the account. The domain payload is
// opaque to the sync engine; UpdatedAt is the sole signal used for
// conflict resolution, refreshed server-side on every accepted write.
type Record struct {
	// ID is the globally unique identifier of the record (UUID string).
	ID string `json:"id"`

	// UserID is the owning account. Records are only ever readable and
	// writable by that account's devices.
	UserID int64 `json:"user_id"`

	// Payload is the domain document as produced by the gamification
	// layer. The sync engine never inspects it.
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is set once, on the device that created the record.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the last-modified timestamp. The server stamps a
	// fresh value on every accepted upsert.
	UpdatedAt time.Time `json:"updated_at"`

	// Deleted marks a soft-deleted row. Deletions propagate like any
	// other change so offline devices observe them.
	Deleted bool `json:"deleted"`
}

// SamePayload reports whether the two records carry identical payload
// bytes and deletion state. Used to distinguish a true conflict from two
// devices writing the same value at the same instant.
func (r Record) SamePayload(other Record) bool {
	return r.Deleted == other.Deleted && bytes.Equal(r.Payload, other.Payload)
}
