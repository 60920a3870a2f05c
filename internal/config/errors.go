package config

import "errors"

// Validation errors returned when required configuration groups are
// incomplete or invalid.
var (
	// ErrInvalidAdapterConfigs indicates invalid client adapter settings
	// (for example, missing base URL or request timeout).
	ErrInvalidAdapterConfigs = errors.New("invalid adapter configuration")
	// ErrInvalidStorageConfigs indicates invalid client storage settings
	// (for example, an empty local database path).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidAuthConfigs indicates missing client credentials.
	ErrInvalidAuthConfigs = errors.New("invalid auth configuration")
	// ErrInvalidSyncConfigs indicates invalid sync cadence settings
	// (for example, a zero sync interval).
	ErrInvalidSyncConfigs = errors.New("invalid sync configuration")
)
