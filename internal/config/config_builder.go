package config

import (
	"errors"
	"fmt"
	"time"

	"dario.cat/mergo"

	"github.com/clipvault/clipsync/models"
)

type configBuilder struct {
	configs []*Config
	err     error
}

func newConfigBuilder() *configBuilder {
	return &configBuilder{
		configs: make([]*Config, 0, 4),
	}
}

func (b *configBuilder) build() (*Config, error) {
	if b.err != nil {
		return nil, fmt.Errorf("error occured during building config: %w", b.err)
	}

	config := new(Config)
	for _, cfg := range b.configs {
		if err := mergo.Merge(config, cfg); err != nil {
			return nil, fmt.Errorf("error merging configs: %w", err)
		}
	}

	return config, config.validate()
}

func (b *configBuilder) withEnv() *configBuilder {
	envCfg := &Config{}
	if err := parseEnv(envCfg); err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}

	b.configs = append(b.configs, envCfg)
	return b
}

func (b *configBuilder) withFlags() *configBuilder {
	flags := ParseFlags()

	b.configs = append(b.configs, flags)
	return b
}

func (b *configBuilder) withJSON() *configBuilder {
	var jsonPath string

	for _, cfg := range b.configs {
		if cfg.JSONFilePath != "" {
			jsonPath = cfg.JSONFilePath
		}
	}

	if jsonPath != "" {
		jsonCfg, err := parseJSON(jsonPath)
		if err != nil {
			b.err = errors.Join(b.err, err)
			return b
		}
		b.configs = append(b.configs, jsonCfg)
	}

	return b
}

// withDefaults appends the built-in defaults as the lowest-priority source:
// mergo only fills fields every earlier source left at zero.
func (b *configBuilder) withDefaults() *configBuilder {
	b.configs = append(b.configs, defaultConfig())
	return b
}

func defaultConfig() *Config {
	return &Config{
		Remote: Remote{
			Timeout: 30 * time.Second,
		},
		Storage: Storage{
			DSN:      "clipsync.db",
			FilesDir: "files",
			CacheDir: "cache",
		},
		Sync: Sync{
			Interval: 5 * time.Minute,
			Policy:   "latest",
			Mode: models.SyncModeConfig{
				IncludeText:   true,
				IncludeHTML:   true,
				IncludeRTF:    true,
				IncludeImages: true,
				IncludeFiles:  true,
				FileLimits: models.FileLimits{
					MaxImageSize:   10 << 20,
					MaxFileSize:    10 << 20,
					MaxPackageSize: 50 << 20,
				},
			},
		},
	}
}
