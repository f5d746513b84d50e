// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The clipsync Authors

package config

import (
	"fmt"

	"github.com/clipvault/clipsync/internal/resolve"
)

// validate checks that the final merged [Config] satisfies the invariants the
// daemon relies on at startup.
func (cfg *Config) validate() error {
	if cfg.Remote.Endpoint == "" {
		return fmt.Errorf("%w: endpoint is required", ErrInvalidRemoteConfigs)
	}
	if cfg.Remote.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidRemoteConfigs)
	}

	if cfg.Storage.DSN == "" {
		return fmt.Errorf("%w: database path is required", ErrInvalidStorageConfigs)
	}

	if cfg.Sync.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidSyncConfigs)
	}
	if !resolve.Policy(cfg.Sync.Policy).Valid() {
		return fmt.Errorf("%w: unknown conflict policy %q", ErrInvalidSyncConfigs, cfg.Sync.Policy)
	}
	if cfg.Sync.Mode.FileLimits.MaxPackageSize <= 0 {
		return fmt.Errorf("%w: max package size must be positive", ErrInvalidSyncConfigs)
	}

	return nil
}
