package enrich

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/XploY04/jobs.ai/internal/model"
)

// Enricher re-derives skills, category, urgency, and quality score for jobs
// already in the store. It patches derived fields only; identity fields are
// untouchable by contract (model.EnrichmentPatch cannot express them).
type Enricher struct {
	store  model.JobStore
	logger *slog.Logger
}

// NewEnricher creates an enricher over the given store.
func NewEnricher(store model.JobStore, logger *slog.Logger) *Enricher {
	return &Enricher{store: store, logger: logger}
}

// Run enriches up to limit jobs and reports how many were patched.
// Per-job failures are logged and skipped; the pass continues.
func (e *Enricher) Run(ctx context.Context, limit int) (int, error) {
	jobs, err := e.store.ListJobs(ctx, model.ListQuery{Limit: limit})
	if err != nil {
		return 0, fmt.Errorf("enrichment pass: listing jobs: %w", err)
	}

	patched := 0
	for _, job := range jobs {
		if ctx.Err() != nil {
			return patched, ctx.Err()
		}

		patch := Derive(job)
		if err := e.store.UpdateEnrichment(ctx, job.ID, patch); err != nil {
			e.logger.Error("enrichment update failed", "job", job.ID, "error", err)
			continue
		}
		patched++
	}

	e.logger.Info("enrichment pass complete", "examined", len(jobs), "patched", patched)
	return patched, nil
}

// Derive computes the rule-based enrichment patch for one job.
func Derive(job model.Job) model.EnrichmentPatch {
	skills := ExtractSkills(job.Title, job.Description)
	category := job.Category
	if category == "" || category == "general" {
		category = CategorizeRole(job.Title, job.Description, skills)
	}
	return model.EnrichmentPatch{
		Skills:         skills,
		Category:       category,
		SeniorityLevel: job.SeniorityLevel,
		QualityScore:   Score(job),
		Urgency:        DetectUrgency(job.Title, job.Description),
	}
}
