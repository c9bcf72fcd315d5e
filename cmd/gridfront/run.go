package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"outpost-hq/gridfront/pkg/cli"
	"outpost-hq/gridfront/pkg/config"
	"outpost-hq/gridfront/pkg/proxy"
	"outpost-hq/gridfront/pkg/router"
	"outpost-hq/gridfront/pkg/server"
	"outpost-hq/gridfront/pkg/telemetry/logging"
	"outpost-hq/gridfront/pkg/telemetry/metrics"
	"outpost-hq/gridfront/pkg/traffic"
)

var runFlags struct {
	listenAddress string
	upstream      string
	logLevel      string
	gridLayout    bool
	transparent   bool
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the gridfront proxy",
	Long: `Start the gridfront proxy with the specified configuration.

The proxy listens on the configured address and forwards all traffic to the
upstream backend, metering bytes per route. The admin listener exposes
health, traffic snapshots, metrics, and remote shutdown.

Examples:
  # Start with default config
  gridfront run

  # Start with custom config
  gridfront run --config /etc/gridfront/config.yaml

  # Override listen address and upstream
  gridfront run --listen 0.0.0.0:3000 --upstream analytics.internal:8443

  # Forward static paths to the upstream instead of serving locally
  gridfront run --transparent

  # Validate config without starting
  gridfront run --dry-run`,
	RunE: runProxy,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.upstream, "upstream", "", "override upstream host")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.gridLayout, "grid-layout", false, "use the grid path layout (/ws, /api, named static subtrees)")
	runCmd.Flags().BoolVar(&runFlags.transparent, "transparent", false, "forward static paths to the upstream instead of serving locally")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the proxy")
}

func runProxy(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig()
	if err != nil {
		return err
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	logger, levelVar, err := logging.New(logging.Config{
		Level:  cfg.Telemetry.Logging.Level,
		Format: cfg.Telemetry.Logging.Format,
	})
	if err != nil {
		return cli.NewConfigError(cfgFile, err)
	}
	slog.SetDefault(logger)

	store := traffic.NewStore()

	if cfg.Persistence.Enabled {
		persistence, err := traffic.NewPersistence(store, traffic.PersistenceConfig{
			Path:          cfg.Persistence.Path,
			FlushSchedule: cfg.Persistence.FlushSchedule,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize persistence: %w", err)
		}
		defer persistence.Close()
	}

	transport, err := proxy.NewTransport(proxy.TransportConfig{
		Trust:            proxy.TrustPolicy(cfg.Upstream.Trust),
		HandshakeTimeout: cfg.Upstream.HandshakeTimeout,
	})
	if err != nil {
		return cli.NewConfigError(cfgFile, err)
	}
	defer transport.CloseIdleConnections()

	relay := proxy.NewRelay(cfg.Upstream.Host, transport, store)
	bridge := proxy.NewBridge(cfg.Upstream.Host, transport, store)

	rules := router.Layout(router.LayoutConfig{
		GridLayout:  cfg.Routing.GridLayout,
		Transparent: cfg.Routing.Transparent,
		SourceData:  cfg.Routing.SourceData,
		Help:        cfg.Routing.Help,
	})
	dispatcher := router.New(rules, relay, bridge)

	srv := buildServer(cfg, dispatcher, store)

	if cfg.WatchConfig {
		watcher, err := config.NewWatcher(cfgFile, cfg, func(updated *config.Config) {
			if level, err := logging.ParseLevel(updated.Telemetry.Logging.Level); err == nil {
				levelVar.Set(level)
			}
		})
		if err != nil {
			slog.Warn("failed to create config watcher", "error", err)
		} else if err := watcher.Start(); err != nil {
			slog.Warn("failed to start config watcher", "error", err)
		} else {
			defer watcher.Close()
		}
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("proxy failed: %w", err)
	}
	return nil
}

// loadRunConfig loads the config file and applies flag overrides. Flags win
// over both the file and the environment.
func loadRunConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err)
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.upstream != "" {
		cfg.Upstream.Host = runFlags.upstream
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if runFlags.gridLayout {
		cfg.Routing.GridLayout = true
	}
	if runFlags.transparent {
		cfg.Routing.Transparent = true
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	if err := config.Validate(cfg); err != nil {
		return nil, cli.NewConfigError(cfgFile, err)
	}
	return cfg, nil
}

// buildServer assembles the server with its optional metrics handler.
func buildServer(cfg *config.Config, dispatcher *router.Router, store *traffic.Store) *server.Server {
	if !cfg.Telemetry.Metrics.Enabled {
		return server.New(cfg, dispatcher, store, nil)
	}
	handler, err := metrics.Handler(store, cfg.Telemetry.Metrics.Namespace)
	if err != nil {
		slog.Warn("failed to build metrics handler, metrics disabled", "error", err)
		return server.New(cfg, dispatcher, store, nil)
	}
	return server.New(cfg, dispatcher, store, handler)
}
