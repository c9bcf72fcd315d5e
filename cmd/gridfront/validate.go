package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"outpost-hq/gridfront/pkg/cli"
	"outpost-hq/gridfront/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Validate a configuration file without starting the proxy.

Defaults and GRIDFRONT_* environment overrides are applied before
validation, matching exactly what "gridfront run" would use.

Examples:
  gridfront validate
  gridfront validate --config /etc/gridfront/config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return cli.NewConfigError(cfgFile, err)
	}

	fmt.Printf("✓ Configuration valid: %s\n", cfgFile)
	fmt.Printf("  listen:      %s\n", cfg.Server.ListenAddress)
	fmt.Printf("  upstream:    %s (trust: %s)\n", cfg.Upstream.Host, cfg.Upstream.Trust)
	if cfg.Routing.GridLayout {
		fmt.Println("  layout:      grid")
	} else {
		fmt.Println("  layout:      app")
	}
	if cfg.Routing.Transparent {
		fmt.Println("  static:      transparent (forwarded to upstream)")
	} else {
		fmt.Printf("  sourcedata:  %s\n", cfg.Routing.SourceData)
		fmt.Printf("  help:        %s\n", cfg.Routing.Help)
	}
	if cfg.Admin.Enabled {
		fmt.Printf("  admin:       %s\n", cfg.Admin.ListenAddress)
	}
	if cfg.Persistence.Enabled {
		fmt.Printf("  persistence: %s (%s)\n", cfg.Persistence.Path, cfg.Persistence.FlushSchedule)
	}
	return nil
}
