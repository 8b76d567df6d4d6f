package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/XploY04/jobs.ai/internal/extract"
	"github.com/XploY04/jobs.ai/internal/model"
)

const (
	defaultChunkSize     = 5
	defaultMaxConcurrent = 4
)

// BatchExtractor produces canonical fields for a slice of raw records,
// preserving length and order. A nil entry means the record needs the
// rule-based fallback.
type BatchExtractor interface {
	ProcessBatch(ctx context.Context, source string, raws []model.RawRecord) []*model.ExtractedFields
}

// Batch is one chunk's worth of finalized jobs, ready to persist. Batches
// are emitted as soon as their chunk completes so a long cycle makes
// incremental progress.
type Batch struct {
	Source string
	Jobs   []model.Job
	// Dropped counts records rejected during extraction or finalization.
	Dropped int
}

// Orchestrator fans a source's raw records out into fixed-size chunks,
// runs extraction over them with bounded concurrency, and streams finalized
// batches to the caller.
type Orchestrator struct {
	extractor     BatchExtractor
	chunkSize     int
	maxConcurrent int
	logger        *slog.Logger
	now           func() time.Time
}

func NewOrchestrator(extractor BatchExtractor, chunkSize, maxConcurrent int, logger *slog.Logger) *Orchestrator {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	return &Orchestrator{
		extractor:     extractor,
		chunkSize:     chunkSize,
		maxConcurrent: maxConcurrent,
		logger:        logger,
		now:           time.Now,
	}
}

// ProcessSource processes raws from one source and returns a channel of
// finalized batches. The channel is closed once every chunk has completed.
// A chunk whose extraction fails falls back to rule-based extraction for
// all of its records; one chunk's failure never affects its siblings.
func (o *Orchestrator) ProcessSource(ctx context.Context, source string, raws []model.RawRecord) <-chan Batch {
	batches := make(chan Batch)

	if o.extractor == nil {
		// No AI backend configured: one sequential fallback pass.
		go func() {
			defer close(batches)
			batch := o.fallbackBatch(source, raws)
			select {
			case batches <- batch:
			case <-ctx.Done():
			}
		}()
		return batches
	}

	go func() {
		defer close(batches)

		pool, err := ants.NewPool(o.maxConcurrent)
		if err != nil {
			o.logger.Error("failed to create worker pool, processing sequentially",
				"source", source, "error", err)
			batch := o.recoverChunk(ctx, source, raws)
			select {
			case batches <- batch:
			case <-ctx.Done():
			}
			return
		}
		defer pool.Release()

		var wg sync.WaitGroup
		for start := 0; start < len(raws); start += o.chunkSize {
			end := start + o.chunkSize
			if end > len(raws) {
				end = len(raws)
			}
			chunk := raws[start:end]

			wg.Add(1)
			submitErr := pool.Submit(func() {
				defer wg.Done()
				batch := o.recoverChunk(ctx, source, chunk)
				select {
				case batches <- batch:
				case <-ctx.Done():
				}
			})
			if submitErr != nil {
				wg.Done()
				o.logger.Error("failed to submit chunk", "source", source, "error", submitErr)
			}
		}
		wg.Wait()
	}()

	return batches
}

// Run processes raws from one source and blocks until every batch has been
// emitted, returning the concatenated jobs and the total dropped count.
// Job order follows chunk completion order, not input order.
func (o *Orchestrator) Run(ctx context.Context, source string, raws []model.RawRecord) ([]model.Job, int) {
	var jobs []model.Job
	var dropped int
	for batch := range o.ProcessSource(ctx, source, raws) {
		jobs = append(jobs, batch.Jobs...)
		dropped += batch.Dropped
	}
	return jobs, dropped
}

// recoverChunk shields a chunk's unit of work: a panic inside extraction or
// finalization reroutes the whole chunk through the rule-based path instead
// of losing its records.
func (o *Orchestrator) recoverChunk(ctx context.Context, source string, chunk []model.RawRecord) (batch Batch) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("chunk processing panicked, falling back",
				"source", source, "records", len(chunk), "panic", r)
			batch = o.fallbackBatch(source, chunk)
		}
	}()
	return o.processChunk(ctx, source, chunk)
}

// processChunk runs AI extraction over one chunk, substituting rule-based
// extraction for any record the backend could not handle.
func (o *Orchestrator) processChunk(ctx context.Context, source string, chunk []model.RawRecord) Batch {
	fieldsPerRecord := o.extractor.ProcessBatch(ctx, source, chunk)
	if len(fieldsPerRecord) != len(chunk) {
		o.logger.Error("extractor broke cardinality, falling back for whole chunk",
			"source", source, "want", len(chunk), "got", len(fieldsPerRecord))
		return o.fallbackBatch(source, chunk)
	}

	batch := Batch{Source: source}
	now := o.now()
	for i, raw := range chunk {
		fields := fieldsPerRecord[i]
		if fields == nil {
			var err error
			fields, err = extract.Fallback(source, raw)
			if err != nil {
				o.logger.Debug("fallback extraction rejected record", "source", source, "error", err)
				batch.Dropped++
				continue
			}
		}
		job, err := Finalize(source, fields, raw, now)
		if err != nil {
			o.logger.Debug("finalization rejected record", "source", source, "error", err)
			batch.Dropped++
			continue
		}
		batch.Jobs = append(batch.Jobs, *job)
	}
	return batch
}

// fallbackBatch extracts and finalizes every record through the rule-based
// path.
func (o *Orchestrator) fallbackBatch(source string, raws []model.RawRecord) Batch {
	batch := Batch{Source: source}
	now := o.now()
	for _, raw := range raws {
		fields, err := extract.Fallback(source, raw)
		if err != nil {
			o.logger.Debug("fallback extraction rejected record", "source", source, "error", err)
			batch.Dropped++
			continue
		}
		job, err := Finalize(source, fields, raw, now)
		if err != nil {
			o.logger.Debug("finalization rejected record", "source", source, "error", err)
			batch.Dropped++
			continue
		}
		batch.Jobs = append(batch.Jobs, *job)
	}
	return batch
}
