package models

import "time"

// SyncState is a read-only snapshot of the sync engine, handed to
// observers. There is exactly one live state per authenticated session;
// snapshots are copies and safe to retain.
type SyncState struct {
	// Syncing is true for the whole duration of one sync cycle.
	Syncing bool `json:"syncing"`

	// Online reflects the Connectivity Monitor's last probe.
	Online bool `json:"online"`

	// PendingCount is the number of local mutations not yet confirmed
	// by the server.
	PendingCount int `json:"pending_count"`

	// LastFullSync is the completion time of the most recent successful
	// full sync, nil before the first one (or after ForceFullSync).
	LastFullSync *time.Time `json:"last_full_sync,omitempty"`

	// Conflicts are resolved-but-unsurfaced conflict records.
	Conflicts []Conflict `json:"conflicts,omitempty"`
}
