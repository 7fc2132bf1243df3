package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"MarketDash/internal/scheduler"
	"MarketDash/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Starts the chart, profile and report API. When export.enabled is set, the scheduled report export runs alongside it.`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := newFetcher()
	asm := newAssembler(fetcher)
	srv := server.New(newCollector(fetcher), asm, server.Options{
		Symbols:  cfg.Catalog.Symbols,
		Restrict: cfg.Catalog.Restrict,
		Debug:    cfg.Logging.Level == "debug" || cfg.Logging.Level == "trace",
	}, logger)

	if cfg.Export.Enabled {
		sched := scheduler.NewScheduler(ctx, asm, cfg.ExportSymbols(), cfg.Export.Dir, logger)
		if err := sched.Register(cfg.Export.Cron); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(cfg.Addr()) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		logger.Info().Msg("shutdown signal received, stopping...")
	}
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("server shutdown")
	}
	logger.Info().Msg("MarketDash stopped")
	return nil
}
