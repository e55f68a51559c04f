package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

// DefaultConfigFile is the config file looked up in the working directory
// when ACC_CONFIG is unset.
const DefaultConfigFile = "config.yaml"

// Load merges LoadBaseline() + ACC_* env overrides + an optional YAML
// config file, then validates the result.
func Load() (*Config, error) {
	cfg := LoadBaseline()

	path := os.Getenv("ACC_CONFIG")
	if path == "" {
		path = DefaultConfigFile
	}
	if _, err := os.Stat(path); err == nil {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	} else if os.Getenv("ACC_CONFIG") != "" {
		// An explicitly requested file must exist.
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays YAML file contents onto cfg. Absent keys keep
// their current values.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides applies ACC_* environment variables. Env wins over
// both baseline and file.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("ACC_SERVER_ADDR"); val != "" {
		cfg.Server.Addr = val
	}

	if val := os.Getenv("ACC_UPDATE_RATE_HZ"); val != "" {
		if rate, err := strconv.Atoi(val); err == nil {
			cfg.Update.RateHz = rate
		}
	}

	if val := os.Getenv("ACC_LOG_DIR"); val != "" {
		cfg.Log.Dir = val
	}

	if val := os.Getenv("ACC_AUTH_ENABLED"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			cfg.Auth.Enabled = enabled
		}
	}

	if val := os.Getenv("ACC_AUTH_SECRET"); val != "" {
		cfg.Auth.SecretKey = val
	}

	if val := os.Getenv("ACC_STALENESS_THRESHOLD_MS"); val != "" {
		if ms, err := strconv.Atoi(val); err == nil {
			for i := range cfg.Controllers {
				cfg.Controllers[i].StalenessThresholdMs = ms
			}
		}
	}
}
