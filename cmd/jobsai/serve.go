package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/XploY04/jobs.ai/internal/api"
	"github.com/XploY04/jobs.ai/internal/discovery"
	"github.com/XploY04/jobs.ai/internal/ingest"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server and the ingestion scheduler",
	Long:  "Serve the HTTP API and run recurring ingestion cycles; blocks until SIGINT/SIGTERM.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"addr", cfg.Server.Addr,
		"engine", cfg.Storage.Engine,
		"interval", cfg.Ingestion.Interval.String(),
		"ai_enabled", cfg.AI.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	coordinator := buildCoordinator(cfg, st, logger)

	scheduler := ingest.NewScheduler(coordinator, cfg.Ingestion.Interval, logger)
	if err := scheduler.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer scheduler.Stop()

	if cfg.Sources.ATS.Enabled {
		disc := discovery.NewDiscoverer(nil, st, cfg.Discovery.MaxBudget, cfg.Discovery.Queries, logger)
		err := scheduler.AddTask("@every 24h", "company discovery", func() {
			if _, err := disc.Run(ctx); err != nil {
				logger.Error("scheduled discovery failed", "error", err)
			}
		})
		if err != nil {
			logger.Error("failed to schedule discovery", "error", err)
			os.Exit(1)
		}
	}

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: api.NewServer(st, coordinator, logger).Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server listening", "addr", cfg.Server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", "error", err)
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("api server shutdown failed", "error", err)
		}
	}

	logger.Info("goodbye")
	return nil
}
