package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/XploY04/jobs.ai/internal/browse"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse saved jobs in an interactive terminal UI",
	RunE:  runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	st, err := openStore(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	return browse.Run(st)
}
