package config

import "time"

// Config is the root configuration structure for gridfront.
type Config struct {
	// Server contains the proxy listener configuration.
	Server ServerConfig `yaml:"server"`

	// Admin contains the admin listener configuration. The admin surface
	// exposes health, traffic snapshots, metrics, and the shutdown control
	// on its own address so it can never shadow proxied routes.
	Admin AdminConfig `yaml:"admin"`

	// Upstream identifies the single backend all traffic is forwarded to.
	Upstream UpstreamConfig `yaml:"upstream"`

	// Routing selects the path layout and the local static directories.
	Routing RoutingConfig `yaml:"routing"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Persistence contains the optional traffic-counter persistence
	// configuration.
	Persistence PersistenceConfig `yaml:"persistence"`

	// WatchConfig enables the config-file watcher. Only the logging level
	// is applied live; any other change logs a restart-required warning.
	WatchConfig bool `yaml:"watch_config"`
}

// ServerConfig contains the proxy HTTP server configuration.
type ServerConfig struct {
	// ListenAddress is the address and port the proxy listens on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ShutdownTimeout bounds the graceful drain of in-flight requests.
	// WebSocket bridges end when their sockets close; the drain does not
	// cut them mid-frame. Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// AdminConfig contains the admin server configuration.
type AdminConfig struct {
	// Enabled controls whether the admin listener starts at all.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the address and port for the admin surface.
	// Default: "127.0.0.1:9091"
	ListenAddress string `yaml:"listen_address"`
}

// UpstreamConfig identifies the backend and its trust model.
type UpstreamConfig struct {
	// Host is the upstream authority ("host" or "host:port", no scheme).
	// Required.
	Host string `yaml:"host"`

	// Trust selects the certificate trust policy: "insecure" accepts any
	// upstream certificate, "system" verifies against system roots.
	// The backend this tool fronts presents a self-signed certificate, so
	// the default is "insecure"; flip to "system" for a hardened
	// deployment with a valid upstream certificate.
	// Default: "insecure"
	Trust string `yaml:"trust"`

	// HandshakeTimeout bounds upstream TLS and WebSocket handshakes.
	// Default: 10s
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
}

// RoutingConfig selects the path layout and static directories.
type RoutingConfig struct {
	// GridLayout selects the alternative path layout (/ws, /api, named
	// static subtrees) instead of the default /app layout.
	// Default: false
	GridLayout bool `yaml:"grid_layout"`

	// Transparent disables all local static serving, forwarding those
	// paths to the upstream instead.
	// Default: false
	Transparent bool `yaml:"transparent"`

	// SourceData is the local directory holding application static assets.
	SourceData string `yaml:"sourcedata"`

	// Help is the local directory holding help assets.
	Help string `yaml:"help"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format: "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus exposition on the admin server.
type MetricsConfig struct {
	// Enabled controls whether /metrics is served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace prefixes all metric names.
	// Default: "gridfront"
	Namespace string `yaml:"namespace"`
}

// PersistenceConfig controls traffic-counter persistence across restarts.
type PersistenceConfig struct {
	// Enabled turns persistence on. When off (the default) counters are
	// in-memory only, matching the historical behavior.
	Enabled bool `yaml:"enabled"`

	// Path is the SQLite database file path.
	// Default: "data/traffic.db"
	Path string `yaml:"path"`

	// FlushSchedule is a cron expression for periodic flushes. The store
	// is always flushed once more on shutdown.
	// Default: "@every 1m"
	FlushSchedule string `yaml:"flush_schedule"`
}
