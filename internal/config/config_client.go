package config

import (
	"fmt"
	"time"
)

// ClientAdapter holds network settings used by the client gateway.
type ClientAdapter struct {
	// BaseURL is the server base URL the gateway talks to.
	BaseURL string
	// RequestTimeout is the bound applied to every outbound request.
	RequestTimeout time.Duration
}

// ClientStorage holds the local database settings of the client.
type ClientStorage struct {
	// Path is the SQLite file path.
	Path string
}

// ClientSync holds the sync engine cadence settings with defaults
// applied.
type ClientSync struct {
	// Interval is the periodic sync cadence (also the push retry
	// backoff cadence).
	Interval time.Duration
	// DebounceWindow collapses realtime notification bursts.
	DebounceWindow time.Duration
	// PingInterval is the connectivity probe cadence.
	PingInterval time.Duration
}

// ClientAuth holds the credentials used to open a session.
type ClientAuth struct {
	Login    string
	Password string
}

// ClientConfig is the top-level client configuration assembled from
// [StructuredConfig].
type ClientConfig struct {
	// Adapter contains client transport address and timeout.
	Adapter ClientAdapter
	// Storage contains local database settings.
	Storage ClientStorage
	// Sync contains sync engine cadence settings.
	Sync ClientSync
	// Auth contains session credentials.
	Auth ClientAuth
}

// GetClientConfig builds and validates a client-specific config view
// from the merged structured configuration.
//
// It loads the base config via [GetStructuredConfig], maps only the
// fields relevant to the client runtime, applies cadence defaults, and
// validates the resulting [ClientConfig].
func GetClientConfig() (*ClientConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	clientCfg := &ClientConfig{
		Adapter: ClientAdapter{
			BaseURL:        cfg.Adapter.BaseURL,
			RequestTimeout: cfg.Adapter.RequestTimeout,
		},
		Storage: ClientStorage{
			Path: cfg.Storage.Local.Path,
		},
		Sync: ClientSync{
			Interval:       cfg.Sync.Interval,
			DebounceWindow: cfg.Sync.DebounceWindow,
			PingInterval:   cfg.Sync.PingInterval,
		},
		Auth: ClientAuth{
			Login:    cfg.Auth.Login,
			Password: cfg.Auth.Password,
		},
	}

	if clientCfg.Adapter.RequestTimeout == 0 {
		clientCfg.Adapter.RequestTimeout = 15 * time.Second
	}
	if clientCfg.Sync.Interval == 0 {
		clientCfg.Sync.Interval = 5 * time.Minute
	}
	if clientCfg.Sync.DebounceWindow == 0 {
		clientCfg.Sync.DebounceWindow = 500 * time.Millisecond
	}
	if clientCfg.Sync.PingInterval == 0 {
		clientCfg.Sync.PingInterval = 30 * time.Second
	}

	return clientCfg, clientCfg.validate()
}
