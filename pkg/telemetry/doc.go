// Package telemetry provides observability for gridfront.
//
// # Components
//
//   - logging: structured logging built on log/slog, with a live-adjustable
//     minimum level
//   - metrics: Prometheus exposition of the traffic counters
//
// # Usage
//
//	logger, level, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	slog.SetDefault(logger)
//	level.Set(slog.LevelDebug) // applied live, no logger rebuild
//
// Metrics are read-side only: a collector walks the traffic store's snapshot
// at scrape time, so the proxy hot path never touches Prometheus types.
package telemetry
