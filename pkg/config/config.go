// Package config loads revision storage engine configuration from
// environment variables (with a REVSTORE_ prefix) and, optionally, a YAML
// file that overrides the environment-derived defaults. The env-prefix
// loader pattern mirrors how other embedded Go stores in this codebase's
// lineage size themselves from the environment with coded defaults.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable named in the engine's configuration surface.
type Config struct {
	// SNAPF is the snapshot factor: a new snapshot is forced once the
	// accumulated delta chain size reaches SNAPF times the base snapshot
	// size. Must be >= 1.
	SNAPF float64 `yaml:"snapf"`

	// IndexPageSize is the default page size for index_at when the caller
	// does not request a different one.
	IndexPageSize int `yaml:"index_page_size"`

	// DataDir is the directory containing the engine's BoltDB file.
	DataDir string `yaml:"data_dir"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// LogJSON selects JSON log output over console output.
	LogJSON bool `yaml:"log_json"`
}

// Defaults returns the coded default configuration.
func Defaults() *Config {
	return &Config{
		SNAPF:         10.0,
		IndexPageSize: 100,
		DataDir:       "./data",
		LogLevel:      "info",
		LogJSON:       false,
	}
}

// Load builds a Config starting from Defaults, overridden by any
// REVSTORE_*-prefixed environment variables that are set, and then (if
// path is non-empty) by a YAML file at path.
func Load(envPrefix, path string) (*Config, error) {
	if envPrefix == "" {
		envPrefix = "REVSTORE_"
	}
	cfg := Defaults()

	if v := os.Getenv(envPrefix + "SNAPF"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.SNAPF = f
		}
	}
	if v := os.Getenv(envPrefix + "INDEX_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.IndexPageSize = n
		}
	}
	if v := os.Getenv(envPrefix + "DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(envPrefix + "LOG_JSON"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.LogJSON = b
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configuration values that would violate an engine
// invariant.
func (c *Config) Validate() error {
	if c.SNAPF < 1.0 {
		return fmt.Errorf("config: snapf must be >= 1.0, got %v", c.SNAPF)
	}
	if c.IndexPageSize < 1 {
		return fmt.Errorf("config: index_page_size must be >= 1, got %d", c.IndexPageSize)
	}
	if c.DataDir == "" {
		return fmt.Errorf("config: data_dir must not be empty")
	}
	return nil
}
