// Package ingest runs the fetch-extract-persist cycle across all enabled
// sources and schedules recurring cycles.
package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/XploY04/jobs.ai/internal/model"
	"github.com/XploY04/jobs.ai/internal/pipeline"
)

// SourceResult reports one source's outcome within a cycle.
type SourceResult struct {
	Source  string          `json:"source"`
	Fetched int             `json:"fetched"`
	Dropped int             `json:"dropped"`
	Stats   model.SaveStats `json:"stats"`
	Error   string          `json:"error,omitempty"`
}

// Summary reports one full ingestion cycle.
type Summary struct {
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Sources    []SourceResult `json:"sources"`
	Fetched    int            `json:"fetched"`
	New        int            `json:"new"`
	Skipped    int            `json:"skipped"`
	Dropped    int            `json:"dropped"`
}

// Coordinator fans one ingestion cycle out across every configured source.
// Sources run concurrently and independently: a failing source contributes
// an error to the summary, nothing more.
type Coordinator struct {
	fetchers     []model.SourceFetcher
	orchestrator *pipeline.Orchestrator
	store        model.JobStore
	logger       *slog.Logger
}

func NewCoordinator(fetchers []model.SourceFetcher, orchestrator *pipeline.Orchestrator, store model.JobStore, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		fetchers:     fetchers,
		orchestrator: orchestrator,
		store:        store,
		logger:       logger,
	}
}

// RunCycle fetches and processes every source concurrently and persists
// batches as they complete, so partial progress survives a crash mid-cycle.
func (c *Coordinator) RunCycle(ctx context.Context) Summary {
	summary := Summary{StartedAt: time.Now().UTC()}

	results := make([]SourceResult, len(c.fetchers))
	var wg sync.WaitGroup
	for i, fetcher := range c.fetchers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.runSource(ctx, fetcher)
		}()
	}
	wg.Wait()

	summary.FinishedAt = time.Now().UTC()
	summary.Sources = results
	for _, r := range results {
		summary.Fetched += r.Fetched
		summary.New += r.Stats.New
		summary.Skipped += r.Stats.Skipped
		summary.Dropped += r.Dropped
	}

	c.logger.Info("ingestion cycle complete",
		"duration", summary.FinishedAt.Sub(summary.StartedAt),
		"fetched", summary.Fetched,
		"new", summary.New,
		"skipped", summary.Skipped,
		"dropped", summary.Dropped,
	)
	return summary
}

func (c *Coordinator) runSource(ctx context.Context, fetcher model.SourceFetcher) SourceResult {
	result := SourceResult{Source: fetcher.Name()}

	raws, err := fetcher.FetchJobs(ctx)
	if err != nil {
		c.logger.Error("source fetch failed", "source", fetcher.Name(), "error", err)
		result.Error = err.Error()
		return result
	}
	result.Fetched = len(raws)
	c.logger.Info("source fetched", "source", fetcher.Name(), "records", len(raws))

	for batch := range c.orchestrator.ProcessSource(ctx, fetcher.Name(), raws) {
		result.Dropped += batch.Dropped
		if len(batch.Jobs) == 0 {
			continue
		}
		stats, err := c.store.SaveJobs(ctx, batch.Jobs)
		if err != nil {
			c.logger.Error("batch save failed",
				"source", fetcher.Name(), "jobs", len(batch.Jobs), "error", err)
			result.Error = err.Error()
			continue
		}
		result.Stats.Add(stats)
	}

	c.logger.Info("source processed",
		"source", fetcher.Name(),
		"fetched", result.Fetched,
		"new", result.Stats.New,
		"skipped", result.Stats.Skipped,
		"dropped", result.Dropped,
	)
	return result
}
