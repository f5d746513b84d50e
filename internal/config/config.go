// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The clipsync Authors

package config

import (
	"time"

	"github.com/clipvault/clipsync/models"
)

// Config is the top-level configuration container for the clipsync daemon.
// It aggregates all sub-configurations and is populated by merging values
// from environment variables, command-line flags, an optional JSON file, and
// built-in defaults.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type Config struct {
	// App holds application-level settings such as the device identifier.
	App App `envPrefix:"APP_"`

	// Remote holds the WebDAV endpoint settings.
	Remote Remote `envPrefix:"REMOTE_"`

	// Storage holds the local history database and payload directory
	// settings.
	Storage Storage `envPrefix:"STORAGE_"`

	// Sync holds the sync schedule, conflict policy, and mode filter.
	Sync Sync `envPrefix:"SYNC_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged behind the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds application-level settings.
type App struct {
	// DeviceID is the stable identifier of this installation, stamped on
	// every item the device creates and on every index it publishes. When
	// empty, the daemon generates one at startup.
	// Env: APP_DEVICE_ID
	DeviceID string `env:"DEVICE_ID"`

	// RunOnce makes the daemon run a single sync pass and exit instead of
	// staying resident. Flag-only (-once); no env mapping.
	RunOnce bool `env:"-"`
}

// Remote holds the WebDAV endpoint configuration.
type Remote struct {
	// Endpoint is the WebDAV server URL (e.g. "https://dav.example.com").
	// Env: REMOTE_ENDPOINT
	Endpoint string `env:"ENDPOINT"`

	// Username and Password are the basic-auth credentials.
	// Env: REMOTE_USERNAME, REMOTE_PASSWORD
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`

	// BasePath is the collection under which all clipsync objects live
	// (e.g. "/clipsync").
	// Env: REMOTE_BASE_PATH
	BasePath string `env:"BASE_PATH"`

	// Timeout is the per-HTTP-call deadline (e.g. "30s").
	// Env: REMOTE_TIMEOUT
	Timeout time.Duration `env:"TIMEOUT"`
}

// Storage holds the local persistence settings.
type Storage struct {
	// DSN is the SQLite database path holding the clipboard history
	// (e.g. "clipsync.db").
	// Env: STORAGE_DSN
	DSN string `env:"DSN"`

	// FilesDir is the directory where binary payload files live.
	// Env: STORAGE_FILES_DIR
	FilesDir string `env:"FILES_DIR"`

	// CacheDir is the directory for payloads materialized from the remote.
	// Env: STORAGE_CACHE_DIR
	CacheDir string `env:"CACHE_DIR"`
}

// Sync holds the schedule and policy knobs of the sync engine.
type Sync struct {
	// Interval is the period of the background sync job (e.g. "5m").
	// Env: SYNC_INTERVAL
	Interval time.Duration `env:"INTERVAL"`

	// Policy selects the conflict resolution strategy: "latest", "local",
	// "remote", or "manual".
	// Env: SYNC_POLICY
	Policy string `env:"POLICY"`

	// Mode is the sync-mode filter deciding which items are eligible.
	// Env: SYNC_MODE_INCLUDE_TEXT, SYNC_MODE_LIMIT_MAX_FILE_SIZE, etc.
	Mode models.SyncModeConfig `envPrefix:"MODE_"`
}

// GetConfig loads, merges, and validates the daemon configuration from all
// available sources in the following priority order (earlier sources win for
// non-zero fields):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
//  4. Built-in defaults
//
// Returns a fully populated *Config or an error if any source fails to load
// or the final config fails validation.
func GetConfig() (*Config, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		withDefaults().
		build()
}
