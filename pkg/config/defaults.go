package config

import "time"

// Default values applied to unset fields.
const (
	DefaultListenAddress      = "127.0.0.1:8080"
	DefaultShutdownTimeout    = 30 * time.Second
	DefaultAdminListenAddress = "127.0.0.1:9091"
	DefaultTrust              = "insecure"
	DefaultHandshakeTimeout   = 10 * time.Second
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "json"
	DefaultMetricsNamespace   = "gridfront"
	DefaultPersistencePath    = "data/traffic.db"
	DefaultFlushSchedule      = "@every 1m"
)

// ApplyDefaults fills in default values for any field left at its zero
// value. It is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Enabled defaults to true when the section is absent; an explicit
	// "enabled: false" alongside a configured address is honored.
	if !cfg.Admin.Enabled && cfg.Admin.ListenAddress == "" {
		cfg.Admin.Enabled = true
	}
	if cfg.Admin.ListenAddress == "" {
		cfg.Admin.ListenAddress = DefaultAdminListenAddress
	}

	if cfg.Upstream.Trust == "" {
		cfg.Upstream.Trust = DefaultTrust
	}
	if cfg.Upstream.HandshakeTimeout == 0 {
		cfg.Upstream.HandshakeTimeout = DefaultHandshakeTimeout
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if !cfg.Telemetry.Metrics.Enabled && cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Enabled = true
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}

	// Persistence stays opt-in; only its parameters get defaults.
	if cfg.Persistence.Path == "" {
		cfg.Persistence.Path = DefaultPersistencePath
	}
	if cfg.Persistence.FlushSchedule == "" {
		cfg.Persistence.FlushSchedule = DefaultFlushSchedule
	}
}
