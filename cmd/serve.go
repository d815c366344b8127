package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dockhand/dockhand/internal/compose"
	"github.com/dockhand/dockhand/internal/config"
	"github.com/dockhand/dockhand/internal/jobs"
	"github.com/dockhand/dockhand/internal/kuma"
	"github.com/dockhand/dockhand/internal/log"
	"github.com/dockhand/dockhand/internal/server"
	"github.com/dockhand/dockhand/internal/status"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dockhand server",
	Long: `Run the dockhand HTTP server in the foreground.

Configuration comes from the environment (a .env file is honored):
  DOCKHAND_ADDR        listen address (default :5000)
  SERVICE_ROOT         directory holding services.json, compose files, images
  COMPOSE_DIR          compose file directory when SERVICE_ROOT is unset
  UPTIME_KUMA_URL      optional Uptime Kuma base URL
  UPTIME_KUMA_API_KEY  optional Uptime Kuma API key
  DOCKHAND_WORKERS     concurrent compose invocations (default 4)`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := log.New(verbose)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	table, err := config.NewTable(cfg.ServicesFile, cfg.ComposeDir, logger)
	if err != nil {
		return fmt.Errorf("load services: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := table.Watch(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("services watcher stopped", "err", err)
		}
	}()

	var store jobs.Store
	if sqlStore, err := jobs.OpenStore(cfg.JobsDB); err != nil {
		logger.Warn("jobs database unavailable; running without persistence", "path", cfg.JobsDB, "err", err)
	} else {
		defer sqlStore.Close()
		store = sqlStore
	}

	registry := jobs.NewRegistry(store, logger)
	registry.SetRetention(cfg.Retention)

	runner := compose.NewRunner()
	scheduler := jobs.NewScheduler(ctx, registry, runner, table, int64(cfg.Workers), logger)

	kumaClient := kuma.NewClient(cfg.KumaURL, cfg.KumaAPIKey, cfg.KumaCacheTTL, logger)
	if kumaClient.Enabled() {
		logger.Info("uptime kuma enabled", "url", cfg.KumaURL)
	}
	reconciler := status.NewReconciler(runner, table, kumaClient, logger)

	srv := server.New(server.Options{
		Addr:              cfg.Addr,
		ImagesDir:         cfg.ImagesDir,
		FallbackImagesDir: cfg.FallbackImagesDir,
	}, table, scheduler, registry, reconciler, logger)

	return srv.Run(ctx)
}
