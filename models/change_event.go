package models

import "time"

// ChangeEvent is a realtime push notification: one row of one table
// changed on the server. Events are delivered per account over the
// realtime channel and may arrive out of order relative to REST calls,
// so the sync engine treats them as hints to re-pull rather than as
// authoritative payloads.
type ChangeEvent struct {
	Table     string    `json:"table"`
	RecordID  string    `json:"record_id"`
	Op        string    `json:"op"`
	UpdatedAt time.Time `json:"updated_at"`
}
