package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration at path, applies defaults, layers
// GRIDFRONT_* environment overrides on top, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides applies GRIDFRONT_SECTION_FIELD environment variables
// over the file-based configuration. Environment always wins.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("GRIDFRONT_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("GRIDFRONT_SERVER_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ShutdownTimeout = d
		}
	}
	if val := os.Getenv("GRIDFRONT_ADMIN_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Admin.Enabled = b
		}
	}
	if val := os.Getenv("GRIDFRONT_ADMIN_LISTEN_ADDRESS"); val != "" {
		cfg.Admin.ListenAddress = val
	}
	if val := os.Getenv("GRIDFRONT_UPSTREAM_HOST"); val != "" {
		cfg.Upstream.Host = val
	}
	if val := os.Getenv("GRIDFRONT_UPSTREAM_TRUST"); val != "" {
		cfg.Upstream.Trust = val
	}
	if val := os.Getenv("GRIDFRONT_ROUTING_GRID_LAYOUT"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Routing.GridLayout = b
		}
	}
	if val := os.Getenv("GRIDFRONT_ROUTING_TRANSPARENT"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Routing.Transparent = b
		}
	}
	if val := os.Getenv("GRIDFRONT_ROUTING_SOURCEDATA"); val != "" {
		cfg.Routing.SourceData = val
	}
	if val := os.Getenv("GRIDFRONT_ROUTING_HELP"); val != "" {
		cfg.Routing.Help = val
	}
	if val := os.Getenv("GRIDFRONT_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("GRIDFRONT_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("GRIDFRONT_PERSISTENCE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Persistence.Enabled = b
		}
	}
	if val := os.Getenv("GRIDFRONT_PERSISTENCE_PATH"); val != "" {
		cfg.Persistence.Path = val
	}
}
