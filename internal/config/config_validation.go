package config

// validate checks that the final merged [StructuredConfig] satisfies
// the invariants the server needs at startup.
//
// Intentionally permissive: the server main fails fast on a missing DSN
// with a clearer message than a generic validation error would give.
func (cfg *StructuredConfig) validate() error {
	return nil
}

func (cfg *ClientConfig) validate() error {
	if cfg.Storage.Path == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Adapter.BaseURL == "" || cfg.Adapter.RequestTimeout == 0 {
		return ErrInvalidAdapterConfigs
	}

	if cfg.Sync.Interval == 0 {
		return ErrInvalidSyncConfigs
	}

	if cfg.Auth.Login == "" {
		return ErrInvalidAuthConfigs
	}

	return nil
}
