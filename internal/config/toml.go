// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Session SessionConfig `toml:"session"`
	Backend BackendConfig `toml:"backend"`
	Server  ServerConfig  `toml:"server"`
}

// SessionConfig maps kiosk session settings.
type SessionConfig struct {
	Shots                 *int     `toml:"shots"`
	AnnounceMs            *int     `toml:"announce-ms"`
	TickMs                *int     `toml:"tick-ms"`
	FinalizeMs            *int     `toml:"finalize-ms"`
	TargetDistance        *float64 `toml:"target-distance"`
	DirectionalMultiplier *float64 `toml:"directional-multiplier"`
}

// BackendConfig maps the remote backend settings.
type BackendConfig struct {
	URL       *string `toml:"url"`
	TimeoutMs *int    `toml:"timeout-ms"`
}

// ServerConfig maps the kiosk API server settings.
type ServerConfig struct {
	Addr   *string `toml:"addr"`
	DBPath *string `toml:"db-path"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
// Environment overrides are applied on top of the file values.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	var cfg FileConfig
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
		}
	} else if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	applyEnv(&cfg)
	return cfg, nil
}
