package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "gridfront",
	Short: "Gridfront - metering reverse proxy",
	Long: `Gridfront is a metering reverse proxy for a single TLS upstream.

It forwards HTTP requests and bridges WebSocket sessions to the backend,
accounting every proxied byte per route:
  - Transparent HTTP relay with verbatim status and header forwarding
  - Full-duplex WebSocket bridging with payload metering
  - Local static serving for selected subtrees
  - Traffic snapshots, Prometheus metrics, and remote shutdown on a
    separate admin listener`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
