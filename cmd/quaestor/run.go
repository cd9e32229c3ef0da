package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"veritas-hq/quaestor/pkg/cli"
	"veritas-hq/quaestor/pkg/config"
	"veritas-hq/quaestor/pkg/evidence"
	"veritas-hq/quaestor/pkg/evidence/integrity"
	"veritas-hq/quaestor/pkg/evidence/ledger"
	"veritas-hq/quaestor/pkg/evidence/service"
	"veritas-hq/quaestor/pkg/evidence/storage"
	"veritas-hq/quaestor/pkg/server"
	"veritas-hq/quaestor/pkg/telemetry/logging"
	"veritas-hq/quaestor/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the evidence API server",
	Long: `Start the quaestor evidence API server with the specified configuration.

The server accepts evidence capture requests, appends each captured record
to the hash-chained audit ledger, and serves audit trail review and chain
verification endpoints.

Examples:
  # Start with default config
  quaestor run

  # Start with custom config
  quaestor run --config /etc/quaestor/config.yaml

  # Override listen address
  quaestor run --listen 0.0.0.0:8090

  # Validate config without starting server
  quaestor run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger := logging.New(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
		RedactPAN: cfg.Telemetry.Logging.RedactPAN,
	})
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Println("Configuration valid")
		return nil
	}

	var collector *metrics.Collector
	var ledgerMetrics *metrics.LedgerMetrics
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Telemetry.Metrics.Namespace)
		ledgerMetrics = collector.Ledger
	}

	slog.Info("opening audit chain", "path", cfg.Evidence.ChainPath, "chain_id", cfg.Evidence.ChainID)
	chainStore, err := ledger.NewFileStore(cfg.Evidence.ChainPath, cfg.Evidence.ChainID)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	chain, err := ledger.New(chainStore)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	// Refuse to serve from a chain that already fails verification.
	if result := chain.Verify(); !result.Valid {
		return cli.NewCommandError("run",
			fmt.Errorf("audit chain failed integrity verification with %d issue(s); refusing to start", len(result.Errors)))
	}

	index, err := openIndex(&cfg.Evidence)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer index.Close()

	svc := service.New(index, chain)
	if ledgerMetrics != nil {
		svc.WithMetrics(ledgerMetrics)
	}

	var checkpoints *integrity.CheckpointStore
	if cfg.Integrity.CheckpointPath != "" {
		checkpoints, err = integrity.NewCheckpointStore(cfg.Integrity.CheckpointPath)
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		defer checkpoints.Close()
	}

	ctx := cli.SetupSignalHandler()

	monitor := integrity.NewMonitor(chain, checkpoints, &integrity.Config{
		VerifySchedule: cfg.Integrity.VerifySchedule,
	}, ledgerMetrics)
	if err := monitor.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	defer monitor.Stop()

	if cfg.Integrity.WatchChainFile {
		watcher, err := integrity.NewChainWatcher(cfg.Evidence.ChainPath, monitor, 0)
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		go func() {
			if err := watcher.Watch(ctx); err != nil {
				slog.Error("chain watcher exited", "error", err)
			}
		}()
		defer watcher.Stop()
	}

	srv := server.NewServer(&cfg.Server, &cfg.Telemetry.Metrics, svc, monitor, collector)
	return srv.Start(ctx)
}

// openIndex opens the configured evidence index backend.
func openIndex(cfg *config.EvidenceConfig) (evidence.Storage, error) {
	switch cfg.IndexBackend {
	case "memory":
		slog.Warn("using in-memory evidence index; records will not survive restarts")
		return storage.NewMemoryStorage(), nil
	case "sqlite":
		sqliteCfg := storage.DefaultSQLiteConfig()
		sqliteCfg.Path = cfg.IndexPath
		return storage.NewSQLiteStorage(sqliteCfg)
	default:
		return nil, fmt.Errorf("unknown evidence index backend %q", cfg.IndexBackend)
	}
}
