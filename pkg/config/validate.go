package config

import (
	"fmt"
	"net"
	"strings"
)

// Validate checks the configuration for errors that would prevent startup.
// It assumes ApplyDefaults has already run.
func Validate(cfg *Config) error {
	var errs []string

	if err := validateListenAddress(cfg.Server.ListenAddress); err != nil {
		errs = append(errs, fmt.Sprintf("server.listen_address: %v", err))
	}
	if cfg.Admin.Enabled {
		if err := validateListenAddress(cfg.Admin.ListenAddress); err != nil {
			errs = append(errs, fmt.Sprintf("admin.listen_address: %v", err))
		}
	}

	if cfg.Upstream.Host == "" {
		errs = append(errs, "upstream.host is required")
	} else if strings.Contains(cfg.Upstream.Host, "://") {
		errs = append(errs, fmt.Sprintf("upstream.host %q must be an authority without a scheme", cfg.Upstream.Host))
	}

	switch cfg.Upstream.Trust {
	case "insecure", "system":
	default:
		errs = append(errs, fmt.Sprintf("upstream.trust %q must be \"insecure\" or \"system\"", cfg.Upstream.Trust))
	}

	if !cfg.Routing.Transparent {
		if cfg.Routing.SourceData == "" {
			errs = append(errs, "routing.sourcedata is required unless routing.transparent is set")
		}
		if cfg.Routing.Help == "" {
			errs = append(errs, "routing.help is required unless routing.transparent is set")
		}
	}

	switch cfg.Telemetry.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("telemetry.logging.level %q must be one of debug, info, warn, error", cfg.Telemetry.Logging.Level))
	}
	switch cfg.Telemetry.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("telemetry.logging.format %q must be \"json\" or \"text\"", cfg.Telemetry.Logging.Format))
	}

	if cfg.Persistence.Enabled && cfg.Persistence.Path == "" {
		errs = append(errs, "persistence.path is required when persistence is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// validateListenAddress checks a "host:port" listen address.
func validateListenAddress(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("%q is not a valid host:port address", addr)
	}
	_ = host // an empty host means all interfaces, which is valid
	if port == "" {
		return fmt.Errorf("%q is missing a port", addr)
	}
	return nil
}
