package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/XploY04/jobs.ai/internal/discovery"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover companies with public ATS boards",
	Long:  "Scan for companies hosting Greenhouse, Lever or Ashby boards and store them for the ats_scraper source.",
	RunE:  runDiscover,
}

func init() {
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
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

	// No search backend is wired in yet; the discoverer falls back to its
	// seed list when search is nil.
	d := discovery.NewDiscoverer(nil, st, cfg.Discovery.MaxBudget, cfg.Discovery.Queries, logger)
	added, err := d.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("discovery finished", "new_companies", added)
	return nil
}
