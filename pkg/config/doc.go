// Package config loads, defaults, and validates the gridfront YAML
// configuration, with GRIDFRONT_* environment variable overrides layered on
// top of the file. The configuration is immutable once the server starts;
// the optional watcher only applies log-level changes at runtime.
package config
