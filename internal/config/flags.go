package config

import (
	"flag"
	"time"

	"github.com/clipvault/clipsync/models"
)

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-endpoint WebDAV server URL
//	-username/-password WebDAV basic-auth credentials
//	-base-path remote collection for clipsync objects
//	-timeout per-HTTP-call deadline (e.g., "30s")
//	-d local history database path
//	-files-dir local payload directory
//	-cache-dir materialization cache directory
//	-device-id stable device identifier
//	-interval background sync period (e.g., "5m")
//	-policy conflict policy: latest, local, remote, manual
//	-only-favorites restrict syncing to pinned items
//	-once run a single sync pass and exit
//	-c/-config json file path with configs
func ParseFlags() *Config {
	var endpoint, username, password, basePath string
	var timeout time.Duration
	var dsn, filesDir, cacheDir string
	var deviceID string
	var interval time.Duration
	var policy string
	var onlyFavorites bool
	var runOnce bool
	var jsonConfigPath string

	flag.StringVar(&endpoint, "endpoint", "", "WebDAV server URL")
	flag.StringVar(&username, "username", "", "WebDAV username")
	flag.StringVar(&password, "password", "", "WebDAV password")
	flag.StringVar(&basePath, "base-path", "", "Remote base path")
	flag.DurationVar(&timeout, "timeout", 0, "HTTP call timeout (e.g., 30s)")
	flag.StringVar(&dsn, "d", "", "History database path")
	flag.StringVar(&filesDir, "files-dir", "", "Local payload directory")
	flag.StringVar(&cacheDir, "cache-dir", "", "Materialization cache directory")
	flag.StringVar(&deviceID, "device-id", "", "Stable device identifier")
	flag.DurationVar(&interval, "interval", 0, "Background sync period (e.g., 5m)")
	flag.StringVar(&policy, "policy", "", "Conflict policy: latest, local, remote, manual")
	flag.BoolVar(&onlyFavorites, "only-favorites", false, "Sync pinned items only")
	flag.BoolVar(&runOnce, "once", false, "Run a single sync pass and exit")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")

	flag.Parse()

	return &Config{
		App: App{
			DeviceID: deviceID,
			RunOnce:  runOnce,
		},
		Remote: Remote{
			Endpoint: endpoint,
			Username: username,
			Password: password,
			BasePath: basePath,
			Timeout:  timeout,
		},
		Storage: Storage{
			DSN:      dsn,
			FilesDir: filesDir,
			CacheDir: cacheDir,
		},
		Sync: Sync{
			Interval: interval,
			Policy:   policy,
			Mode: models.SyncModeConfig{
				OnlyFavorites: onlyFavorites,
			},
		},
		JSONFilePath: jsonConfigPath,
	}
}
