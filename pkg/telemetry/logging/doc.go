// Package logging builds the process-wide structured logger.
//
// The logger is a plain *slog.Logger writing JSON or text. Its minimum level
// lives in a slog.LevelVar so the configuration watcher can adjust it while
// the server runs.
package logging
