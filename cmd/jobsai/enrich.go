package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/XploY04/jobs.ai/internal/enrich"
)

var enrichLimit int

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Backfill enrichment fields on saved jobs",
	Long:  "Recompute skills, category, urgency and quality score for stored jobs. Useful after heuristics change or for rows ingested before enrichment existed.",
	RunE:  runEnrich,
}

func init() {
	enrichCmd.Flags().IntVar(&enrichLimit, "limit", 500, "maximum number of jobs to enrich")
	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	updated, err := enrich.NewEnricher(st, logger).Run(ctx, enrichLimit)
	if err != nil {
		return err
	}
	logger.Info("enrichment finished", "updated", updated)
	return nil
}
