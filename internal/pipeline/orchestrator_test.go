package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XploY04/jobs.ai/internal/model"
)

// stubExtractor succeeds for every record unless its chunk contains a
// record whose "position" matches failOn, in which case the whole chunk
// comes back nil (as a failed backend call would).
type stubExtractor struct {
	mu     sync.Mutex
	calls  int
	failOn string
}

func (s *stubExtractor) ProcessBatch(_ context.Context, _ string, raws []model.RawRecord) []*model.ExtractedFields {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	out := make([]*model.ExtractedFields, len(raws))
	for i, raw := range raws {
		title, _ := raw["position"].(string)
		if s.failOn != "" && title == s.failOn {
			return out // all nil: simulate an unusable batch response
		}
		out[i] = &model.ExtractedFields{
			Title:       title,
			Company:     "Acme",
			Description: "via ai",
		}
	}
	return out
}

func remoteokRaws(n int) []model.RawRecord {
	raws := make([]model.RawRecord, n)
	for i := range raws {
		raws[i] = model.RawRecord{
			"id":          fmt.Sprintf("%d", i),
			"position":    fmt.Sprintf("Engineer %d", i),
			"company":     "Acme",
			"description": "via fallback",
		}
	}
	return raws
}

func collect(ch <-chan Batch) []Batch {
	var batches []Batch
	for b := range ch {
		batches = append(batches, b)
	}
	return batches
}

func newTestOrchestrator(ex BatchExtractor, chunkSize, maxConcurrent int) *Orchestrator {
	return NewOrchestrator(ex, chunkSize, maxConcurrent, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestProcessSourceEmitsAllRecordsAcrossBatches(t *testing.T) {
	ex := &stubExtractor{}
	o := newTestOrchestrator(ex, 3, 2)

	batches := collect(o.ProcessSource(context.Background(), "remoteok", remoteokRaws(7)))

	require.Len(t, batches, 3) // 3 + 3 + 1
	seen := map[string]bool{}
	total := 0
	for _, b := range batches {
		assert.Equal(t, "remoteok", b.Source)
		for _, j := range b.Jobs {
			seen[j.ID] = true
			total++
		}
	}
	assert.Equal(t, 7, total)
	assert.Len(t, seen, 7)
	assert.Equal(t, 3, ex.calls)
}

func TestProcessSourceChunkFailureFallsBackWithoutAbortingSiblings(t *testing.T) {
	// Chunk size 1 so exactly one chunk fails.
	ex := &stubExtractor{failOn: "Engineer 1"}
	o := newTestOrchestrator(ex, 1, 2)

	batches := collect(o.ProcessSource(context.Background(), "remoteok", remoteokRaws(3)))

	require.Len(t, batches, 3)
	descriptions := map[string]string{}
	for _, b := range batches {
		for _, j := range b.Jobs {
			descriptions[j.Title] = j.Description
		}
	}
	require.Len(t, descriptions, 3)
	assert.Equal(t, "via ai", descriptions["Engineer 0"])
	assert.Equal(t, "via fallback", descriptions["Engineer 1"]) // rule-based path
	assert.Equal(t, "via ai", descriptions["Engineer 2"])
}

func TestProcessSourceWithoutExtractorUsesSingleFallbackBatch(t *testing.T) {
	o := newTestOrchestrator(nil, 5, 2)

	batches := collect(o.ProcessSource(context.Background(), "remoteok", remoteokRaws(4)))

	require.Len(t, batches, 1)
	assert.Len(t, batches[0].Jobs, 4)
	for _, j := range batches[0].Jobs {
		assert.Equal(t, "via fallback", j.Description)
	}
}

func TestProcessSourceCountsDroppedRecords(t *testing.T) {
	raws := remoteokRaws(2)
	raws[1]["position"] = "" // unextractable either way
	o := newTestOrchestrator(nil, 5, 1)

	batches := collect(o.ProcessSource(context.Background(), "remoteok", raws))

	require.Len(t, batches, 1)
	assert.Len(t, batches[0].Jobs, 1)
	assert.Equal(t, 1, batches[0].Dropped)
}

func TestProcessSourceEmptyInput(t *testing.T) {
	ex := &stubExtractor{}
	o := newTestOrchestrator(ex, 5, 2)

	batches := collect(o.ProcessSource(context.Background(), "remoteok", nil))
	assert.Empty(t, batches)
	assert.Equal(t, 0, ex.calls)
}

func TestRunConcatenatesAllBatches(t *testing.T) {
	ex := &stubExtractor{}
	o := newTestOrchestrator(ex, 3, 2)

	jobs, dropped := o.Run(context.Background(), "remoteok", remoteokRaws(8))

	assert.Len(t, jobs, 8)
	assert.Equal(t, 0, dropped)

	seen := make(map[string]bool, len(jobs))
	for _, job := range jobs {
		seen[job.ID] = true
	}
	assert.Len(t, seen, 8)
}

// panicExtractor blows up on every call, as a buggy backend would.
type panicExtractor struct{}

func (panicExtractor) ProcessBatch(_ context.Context, _ string, _ []model.RawRecord) []*model.ExtractedFields {
	panic("backend exploded")
}

func TestProcessSourcePanickingChunkFallsBack(t *testing.T) {
	o := newTestOrchestrator(panicExtractor{}, 5, 2)

	batches := collect(o.ProcessSource(context.Background(), "remoteok", remoteokRaws(2)))

	require.Len(t, batches, 1)
	require.Len(t, batches[0].Jobs, 2)
	for _, job := range batches[0].Jobs {
		assert.Equal(t, "via fallback", job.Description)
	}
}
