package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/XploY04/jobs.ai/internal/ai"
	"github.com/XploY04/jobs.ai/internal/config"
	"github.com/XploY04/jobs.ai/internal/fetch"
	"github.com/XploY04/jobs.ai/internal/ingest"
	"github.com/XploY04/jobs.ai/internal/model"
	"github.com/XploY04/jobs.ai/internal/pipeline"
	"github.com/XploY04/jobs.ai/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobsai",
	Short: "Multi-source job aggregator",
	Long:  "jobs.ai pulls engineering roles from job boards, ATS APIs, feeds and HN, extracts structured data, and serves the result over an HTTP API.",
	// Default to `serve` so the bare binary runs the daemon.
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBSAI_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBSAI_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("JOBSAI_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// jobStore is the union of the two store roles every command needs.
type jobStore interface {
	model.JobStore
	model.CompanyStore
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (jobStore, error) {
	if cfg.Storage.Engine == "postgres" {
		return store.NewPostgresStore(ctx, cfg.Storage.DSN, logger)
	}
	return store.NewSQLiteStore(cfg.Storage.Path, logger)
}

// buildFetchers assembles the enabled sources, each wrapped with retry.
func buildFetchers(cfg *config.Config, st jobStore, logger *slog.Logger) []model.SourceFetcher {
	httpClient := &http.Client{Timeout: 30 * time.Second}

	// Quota-metered APIs share one limiter, keyed by host.
	apiLimiter := fetch.NewHostRateLimiter(time.Second)

	var fetchers []model.SourceFetcher
	add := func(f model.SourceFetcher) {
		fetchers = append(fetchers,
			fetch.NewRetryFetcher(f, cfg.Ingestion.RetryAttempts, cfg.Ingestion.RetryDelay, logger))
		logger.Info("registered source", "source", f.Name())
	}

	if cfg.Sources.RemoteOK.Enabled {
		add(fetch.NewRemoteOKFetcher("", httpClient))
	}
	if cfg.Sources.JSearch.Enabled {
		jsearch := fetch.NewJSearchFetcher("", cfg.Sources.JSearch.APIKey,
			cfg.Sources.JSearch.Queries, cfg.Sources.JSearch.NumPages, httpClient, logger)
		add(fetch.NewRateLimitedFetcher(jsearch, apiLimiter, "jsearch.p.rapidapi.com"))
	}
	if cfg.Sources.Adzuna.Enabled {
		adzuna := fetch.NewAdzunaFetcher("", cfg.Sources.Adzuna.AppID, cfg.Sources.Adzuna.AppKey,
			cfg.Sources.Adzuna.Countries, cfg.Sources.Adzuna.Query,
			cfg.Sources.Adzuna.ResultsPerPage, httpClient, logger)
		add(fetch.NewRateLimitedFetcher(adzuna, apiLimiter, "api.adzuna.com"))
	}
	if cfg.Sources.HackerNews.Enabled {
		add(fetch.NewHackerNewsFetcher("", "", httpClient))
	}
	if cfg.Sources.RSS.Enabled {
		add(fetch.NewRSSFeedFetcher(cfg.Sources.RSS.Feeds, httpClient, logger))
	}
	if cfg.Sources.ATS.Enabled {
		limiter := fetch.NewHostRateLimiter(cfg.Sources.ATS.MinDelay)
		add(fetch.NewATSBoardFetcher(st, limiter, cfg.Sources.ATS.MaxCompanies, httpClient, logger))
	}
	return fetchers
}

func buildCoordinator(cfg *config.Config, st jobStore, logger *slog.Logger) *ingest.Coordinator {
	var extractor pipeline.BatchExtractor
	if cfg.AI.Enabled {
		provider := ai.NewOpenAIProvider(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model,
			&http.Client{Timeout: cfg.AI.Timeout})
		extractor = ai.NewGateway(provider, cfg.Ingestion.ChunkSize, logger)
		logger.Info("ai extraction enabled", "model", cfg.AI.Model)
	} else {
		logger.Info("ai extraction disabled, using rule-based extraction")
	}

	orch := pipeline.NewOrchestrator(extractor,
		cfg.Ingestion.ChunkSize, cfg.Ingestion.MaxConcurrent, logger)
	return ingest.NewCoordinator(buildFetchers(cfg, st, logger), orch, st, logger)
}
