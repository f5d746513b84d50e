package config

import "errors"

// Validation errors returned by [Config.validate] when required configuration
// groups are incomplete or invalid.
var (
	// ErrInvalidRemoteConfigs indicates invalid WebDAV settings
	// (for example, a missing endpoint or zero timeout).
	ErrInvalidRemoteConfigs = errors.New("invalid remote configuration")
	// ErrInvalidStorageConfigs indicates invalid local storage settings
	// (for example, an empty database path).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidSyncConfigs indicates invalid sync settings
	// (for example, an unknown conflict policy or zero interval).
	ErrInvalidSyncConfigs = errors.New("invalid sync configuration")
)
