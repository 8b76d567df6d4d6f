package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XploY04/jobs.ai/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "jobs.db"),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleJob(id string) model.Job {
	return model.Job{
		ID:               id,
		Source:           "remoteok",
		SourceID:         id,
		Title:            "Backend Engineer " + id,
		Company:          "Acme",
		Description:      "Build services in Go.",
		EmploymentType:   "FULLTIME",
		SeniorityLevel:   "senior",
		Category:         "backend",
		IsRemote:         true,
		ApplyURL:         "https://acme.example/" + id,
		PostedAt:         time.Now().UTC().Truncate(time.Second),
		FetchedAt:        time.Now().UTC().Truncate(time.Second),
		QualityScore:     60,
		TitleCompanyHash: model.HashTitleCompany("Backend Engineer "+id, "Acme"),
		RawData:          model.RawRecord{"id": id},
	}
}

func TestSaveJobsIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	stats, err := s.SaveJobs(ctx, []model.Job{sampleJob("1")})
	require.NoError(t, err)
	assert.Equal(t, model.SaveStats{New: 1, Skipped: 0}, stats)

	stats, err = s.SaveJobs(ctx, []model.Job{sampleJob("1")})
	require.NoError(t, err)
	assert.Equal(t, model.SaveStats{New: 0, Skipped: 1}, stats)
}

func TestSaveJobsSkipsByFingerprint(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := sampleJob("1")
	_, err := s.SaveJobs(ctx, []model.Job{first})
	require.NoError(t, err)

	// Same posting surfacing via a different source id.
	dupe := sampleJob("2")
	dupe.Title = first.Title
	dupe.TitleCompanyHash = first.TitleCompanyHash

	stats, err := s.SaveJobs(ctx, []model.Job{dupe})
	require.NoError(t, err)
	assert.Equal(t, model.SaveStats{New: 0, Skipped: 1}, stats)

	count, err := s.CountJobs(ctx, model.ListQuery{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSaveJobsMixedBatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.SaveJobs(ctx, []model.Job{sampleJob("1")})
	require.NoError(t, err)

	stats, err := s.SaveJobs(ctx, []model.Job{sampleJob("1"), sampleJob("2"), sampleJob("3")})
	require.NoError(t, err)
	assert.Equal(t, model.SaveStats{New: 2, Skipped: 1}, stats)
}

func TestGetJobRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	want := sampleJob("1")
	want.Skills = []string{"go", "postgresql"}
	_, err := s.SaveJobs(ctx, []model.Job{want})
	require.NoError(t, err)

	got, err := s.GetJob(ctx, "1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.Title, got.Title)
	assert.Equal(t, want.Skills, got.Skills)
	assert.Equal(t, want.TitleCompanyHash, got.TitleCompanyHash)
	assert.Equal(t, want.RawData, got.RawData)

	missing, err := s.GetJob(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListJobsFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := sampleJob("1")
	b := sampleJob("2")
	b.Source = "adzuna"
	b.SeniorityLevel = "junior"
	b.IsRemote = false
	c := sampleJob("3")
	c.EmploymentType = "CONTRACT"
	c.Title = "Data Scientist"
	c.Category = "data"
	c.TitleCompanyHash = model.HashTitleCompany(c.Title, c.Company)

	_, err := s.SaveJobs(ctx, []model.Job{a, b, c})
	require.NoError(t, err)

	jobs, err := s.ListJobs(ctx, model.ListQuery{Limit: 10, Sources: []string{"adzuna"}})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "2", jobs[0].ID)

	jobs, err = s.ListJobs(ctx, model.ListQuery{Limit: 10, RemoteOnly: true})
	require.NoError(t, err)
	assert.Len(t, jobs, 2)

	jobs, err = s.ListJobs(ctx, model.ListQuery{Limit: 10, EmploymentType: "contract"})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "3", jobs[0].ID)

	jobs, err = s.ListJobs(ctx, model.ListQuery{Limit: 10, Search: "Scientist"})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "3", jobs[0].ID)

	jobs, err = s.ListJobs(ctx, model.ListQuery{Limit: 10, Seniority: []string{"junior"}})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "2", jobs[0].ID)
}

func TestListJobsPaginationAndOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var jobs []model.Job
	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		j := sampleJob(fmt.Sprintf("%d", i))
		j.PostedAt = base.Add(-time.Duration(i) * time.Hour)
		jobs = append(jobs, j)
	}
	_, err := s.SaveJobs(ctx, jobs)
	require.NoError(t, err)

	page, err := s.ListJobs(ctx, model.ListQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "0", page[0].ID) // newest first
	assert.Equal(t, "1", page[1].ID)

	page, err = s.ListJobs(ctx, model.ListQuery{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "2", page[0].ID)
}

func TestListJobsClampsLimit(t *testing.T) {
	assert.Equal(t, 1, clampLimit(0))
	assert.Equal(t, 1, clampLimit(-5))
	assert.Equal(t, model.MaxPageSize, clampLimit(10000))
	assert.Equal(t, 50, clampLimit(50))
}

func TestFilterOptions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := sampleJob("1")
	b := sampleJob("2")
	b.Source = "adzuna"
	b.Category = ""
	_, err := s.SaveJobs(ctx, []model.Job{a, b})
	require.NoError(t, err)

	opts, err := s.FilterOptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, opts["sources"]["remoteok"])
	assert.Equal(t, 1, opts["sources"]["adzuna"])
	assert.Equal(t, 2, opts["employment_types"]["FULLTIME"])
	assert.Equal(t, 1, opts["categories"]["backend"]) // empty category not counted
}

func TestUpdateEnrichment(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.SaveJobs(ctx, []model.Job{sampleJob("1")})
	require.NoError(t, err)

	patch := model.EnrichmentPatch{
		Skills:         []string{"go", "kubernetes"},
		Category:       "devops",
		SeniorityLevel: "staff",
		QualityScore:   85,
		Urgency:        "urgent",
	}
	require.NoError(t, s.UpdateEnrichment(ctx, "1", patch))

	got, err := s.GetJob(ctx, "1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, patch.Skills, got.Skills)
	assert.Equal(t, "devops", got.Category)
	assert.Equal(t, "staff", got.SeniorityLevel)
	assert.Equal(t, 85, got.QualityScore)
	assert.Equal(t, "urgent", got.Urgency)

	// Filter columns stay in sync with the document.
	jobs, err := s.ListJobs(ctx, model.ListQuery{Limit: 10, Category: []string{"devops"}})
	require.NoError(t, err)
	assert.Len(t, jobs, 1)

	err = s.UpdateEnrichment(ctx, "missing", patch)
	assert.Error(t, err)
}

func TestUpsertAndListCompanies(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	companies := []model.DiscoveredCompany{
		{Platform: "greenhouse", Slug: "acme", Name: "Acme"},
		{Platform: "lever", Slug: "initech", Name: "Initech"},
	}
	added, err := s.UpsertCompanies(ctx, companies)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	added, err = s.UpsertCompanies(ctx, companies[:1])
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	all, err := s.ListCompanies(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	gh, err := s.ListCompanies(ctx, "greenhouse")
	require.NoError(t, err)
	require.Len(t, gh, 1)
	assert.Equal(t, "acme", gh[0].Slug)
}
