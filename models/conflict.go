package models

import "time"

// Conflict resolutions.
const (
	ResolutionRemote = "remote"
	ResolutionLocal  = "local"
)

// Conflict records a concurrent-edit collision: the same record was
// modified on this device and remotely with equal last-modified
// timestamps but differing payloads. The resolver picks the remote
// version so every device converges without a coordination round-trip;
// the discarded local version is retained here so the application can
// surface the silent loss to the user.
type Conflict struct {
	Table      string    `json:"table"`
	RecordID   string    `json:"record_id"`
	Local      Record    `json:"local"`
	Remote     Record    `json:"remote"`
	Resolution string    `json:"resolution"`
	DetectedAt time.Time `json:"detected_at"`
}
