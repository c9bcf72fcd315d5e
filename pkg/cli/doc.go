// Package cli provides shared helpers for the gridfront command line:
// typed errors that map to exit codes and signal-aware contexts.
package cli
