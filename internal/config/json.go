package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/clipvault/clipsync/models"
)

// JSONConfig mirrors [Config] in the shape a configuration file uses:
// snake_case keys and human-readable durations ("30s", "5m").
type JSONConfig struct {
	App struct {
		DeviceID string `json:"device_id"`
	} `json:"app,omitempty"`

	Remote struct {
		Endpoint string   `json:"endpoint"`
		Username string   `json:"username"`
		Password string   `json:"password"`
		BasePath string   `json:"base_path"`
		Timeout  Duration `json:"timeout"`
	} `json:"remote,omitempty"`

	Storage struct {
		DSN      string `json:"dsn"`
		FilesDir string `json:"files_dir"`
		CacheDir string `json:"cache_dir"`
	} `json:"storage,omitempty"`

	Sync struct {
		Interval Duration `json:"interval"`
		Policy   string   `json:"policy"`
		Mode     struct {
			IncludeText   bool `json:"include_text"`
			IncludeHTML   bool `json:"include_html"`
			IncludeRTF    bool `json:"include_rtf"`
			IncludeImages bool `json:"include_images"`
			IncludeFiles  bool `json:"include_files"`
			OnlyFavorites bool `json:"only_favorites"`

			FileLimits struct {
				MaxImageSize   int64 `json:"max_image_size"`
				MaxFileSize    int64 `json:"max_file_size"`
				MaxPackageSize int64 `json:"max_package_size"`
			} `json:"file_limits"`
		} `json:"mode"`
	} `json:"sync,omitempty"`
}

func parseJSON(jsonFilePath string) (*Config, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg JSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &Config{
		App: App{
			DeviceID: jsonCfg.App.DeviceID,
		},
		Remote: Remote{
			Endpoint: jsonCfg.Remote.Endpoint,
			Username: jsonCfg.Remote.Username,
			Password: jsonCfg.Remote.Password,
			BasePath: jsonCfg.Remote.BasePath,
			Timeout:  time.Duration(jsonCfg.Remote.Timeout),
		},
		Storage: Storage{
			DSN:      jsonCfg.Storage.DSN,
			FilesDir: jsonCfg.Storage.FilesDir,
			CacheDir: jsonCfg.Storage.CacheDir,
		},
		Sync: Sync{
			Interval: time.Duration(jsonCfg.Sync.Interval),
			Policy:   jsonCfg.Sync.Policy,
			Mode: models.SyncModeConfig{
				IncludeText:   jsonCfg.Sync.Mode.IncludeText,
				IncludeHTML:   jsonCfg.Sync.Mode.IncludeHTML,
				IncludeRTF:    jsonCfg.Sync.Mode.IncludeRTF,
				IncludeImages: jsonCfg.Sync.Mode.IncludeImages,
				IncludeFiles:  jsonCfg.Sync.Mode.IncludeFiles,
				OnlyFavorites: jsonCfg.Sync.Mode.OnlyFavorites,
				FileLimits: models.FileLimits{
					MaxImageSize:   jsonCfg.Sync.Mode.FileLimits.MaxImageSize,
					MaxFileSize:    jsonCfg.Sync.Mode.FileLimits.MaxFileSize,
					MaxPackageSize: jsonCfg.Sync.Mode.FileLimits.MaxPackageSize,
				},
			},
		},
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling
// from strings like "1h", "30s".
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
