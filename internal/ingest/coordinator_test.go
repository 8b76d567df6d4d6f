package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XploY04/jobs.ai/internal/model"
	"github.com/XploY04/jobs.ai/internal/pipeline"
)

type stubFetcher struct {
	name string
	raws []model.RawRecord
	err  error
}

func (s *stubFetcher) Name() string { return s.name }

func (s *stubFetcher) FetchJobs(_ context.Context) ([]model.RawRecord, error) {
	return s.raws, s.err
}

// memoryStore records saved jobs and dedups by id, enough for cycle tests.
type memoryStore struct {
	mu    sync.Mutex
	jobs  map[string]model.Job
	saves int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{jobs: make(map[string]model.Job)}
}

func (m *memoryStore) SaveJobs(_ context.Context, jobs []model.Job) (model.SaveStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	var stats model.SaveStats
	for _, j := range jobs {
		if _, ok := m.jobs[j.ID]; ok {
			stats.Skipped++
			continue
		}
		m.jobs[j.ID] = j
		stats.New++
	}
	return stats, nil
}

func (m *memoryStore) ListJobs(_ context.Context, _ model.ListQuery) ([]model.Job, error) {
	return nil, nil
}

func (m *memoryStore) CountJobs(_ context.Context, _ model.ListQuery) (int, error) {
	return len(m.jobs), nil
}

func (m *memoryStore) GetJob(_ context.Context, id string) (*model.Job, error) {
	if j, ok := m.jobs[id]; ok {
		return &j, nil
	}
	return nil, nil
}

func (m *memoryStore) FilterOptions(_ context.Context) (map[string]map[string]int, error) {
	return nil, nil
}

func (m *memoryStore) UpdateEnrichment(_ context.Context, _ string, _ model.EnrichmentPatch) error {
	return nil
}

func (m *memoryStore) Close() error { return nil }

func remoteokRaw(id int) model.RawRecord {
	return model.RawRecord{
		"id":          fmt.Sprintf("%d", id),
		"position":    fmt.Sprintf("Engineer %d", id),
		"company":     "Acme",
		"description": "Build things",
	}
}

func testCoordinator(store model.JobStore, fetchers ...model.SourceFetcher) *Coordinator {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := pipeline.NewOrchestrator(nil, 5, 2, logger)
	return NewCoordinator(fetchers, orch, store, logger)
}

func TestRunCycleAggregatesAllSources(t *testing.T) {
	store := newMemoryStore()
	c := testCoordinator(store,
		&stubFetcher{name: "remoteok", raws: []model.RawRecord{remoteokRaw(1), remoteokRaw(2)}},
		&stubFetcher{name: "remoteok", raws: []model.RawRecord{remoteokRaw(3)}},
	)

	summary := c.RunCycle(context.Background())

	require.Len(t, summary.Sources, 2)
	assert.Equal(t, 3, summary.Fetched)
	assert.Equal(t, 3, summary.New)
	assert.Equal(t, 0, summary.Skipped)
	assert.False(t, summary.FinishedAt.Before(summary.StartedAt))

	count, _ := store.CountJobs(context.Background(), model.ListQuery{})
	assert.Equal(t, 3, count)
}

func TestRunCycleSecondRunSkipsEverything(t *testing.T) {
	store := newMemoryStore()
	c := testCoordinator(store,
		&stubFetcher{name: "remoteok", raws: []model.RawRecord{remoteokRaw(1)}},
	)

	first := c.RunCycle(context.Background())
	assert.Equal(t, 1, first.New)

	second := c.RunCycle(context.Background())
	assert.Equal(t, 0, second.New)
	assert.Equal(t, 1, second.Skipped)
}

func TestRunCycleFailingSourceDoesNotAffectOthers(t *testing.T) {
	store := newMemoryStore()
	c := testCoordinator(store,
		&stubFetcher{name: "jsearch", err: errors.New("upstream down")},
		&stubFetcher{name: "remoteok", raws: []model.RawRecord{remoteokRaw(1)}},
	)

	summary := c.RunCycle(context.Background())

	require.Len(t, summary.Sources, 2)
	assert.Equal(t, "upstream down", summary.Sources[0].Error)
	assert.Equal(t, 0, summary.Sources[0].Fetched)
	assert.Empty(t, summary.Sources[1].Error)
	assert.Equal(t, 1, summary.New)
}

func TestRunCycleCountsDroppedRecords(t *testing.T) {
	store := newMemoryStore()
	bad := remoteokRaw(9)
	bad["position"] = ""
	c := testCoordinator(store,
		&stubFetcher{name: "remoteok", raws: []model.RawRecord{remoteokRaw(1), bad}},
	)

	summary := c.RunCycle(context.Background())
	assert.Equal(t, 2, summary.Fetched)
	assert.Equal(t, 1, summary.New)
	assert.Equal(t, 1, summary.Dropped)
}
