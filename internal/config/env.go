package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override file values.
const (
	EnvBackendURL = "SWINGKIOSK_BACKEND_URL"
	EnvServerAddr = "SWINGKIOSK_SERVER_ADDR"
	EnvDBPath     = "SWINGKIOSK_DB_PATH"
)

// LoadDotEnv loads variables from a .env file. A missing file is not an error
// and variables already present in the environment are kept.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

func applyEnv(cfg *FileConfig) {
	if v, ok := lookupEnv(EnvBackendURL); ok {
		cfg.Backend.URL = &v
	}
	if v, ok := lookupEnv(EnvServerAddr); ok {
		cfg.Server.Addr = &v
	}
	if v, ok := lookupEnv(EnvDBPath); ok {
		cfg.Server.DBPath = &v
	}
}

func lookupEnv(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}
