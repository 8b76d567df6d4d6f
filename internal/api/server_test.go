package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XploY04/jobs.ai/internal/model"
	"github.com/XploY04/jobs.ai/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.SQLiteStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "jobs.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	srv := httptest.NewServer(NewServer(st, nil, logger).Router())
	t.Cleanup(srv.Close)
	return srv, st
}

func seedJobs(t *testing.T, st *store.SQLiteStore, jobs ...model.Job) {
	t.Helper()
	_, err := st.SaveJobs(t.Context(), jobs)
	require.NoError(t, err)
}

func testJob(id, title string) model.Job {
	return model.Job{
		ID:               id,
		Source:           "remoteok",
		SourceID:         id,
		Title:            title,
		Company:          "Acme",
		Description:      "Build services",
		EmploymentType:   "FULLTIME",
		IsRemote:         true,
		ApplyURL:         "https://acme.example/" + id,
		PostedAt:         time.Now().UTC(),
		FetchedAt:        time.Now().UTC(),
		TitleCompanyHash: model.HashTitleCompany(title, "Acme"),
	}
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	var body map[string]string
	code := getJSON(t, srv.URL+"/api/health", &body)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestListJobs(t *testing.T) {
	srv, st := newTestServer(t)
	seedJobs(t, st,
		testJob("1", "Backend Engineer"),
		testJob("2", "Frontend Engineer"),
	)

	var body struct {
		Jobs  []model.Job `json:"jobs"`
		Total int         `json:"total"`
		Limit int         `json:"limit"`
	}
	code := getJSON(t, srv.URL+"/api/jobs", &body)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2, body.Total)
	assert.Len(t, body.Jobs, 2)
	assert.Equal(t, defaultPageSize, body.Limit)

	code = getJSON(t, srv.URL+"/api/jobs?search=Frontend", &body)
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, body.Jobs, 1)
	assert.Equal(t, "Frontend Engineer", body.Jobs[0].Title)
	assert.Equal(t, 1, body.Total)
}

func TestListJobsEmptyStoreReturnsArray(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/jobs")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"jobs":[]`)
}

func TestListJobsParamValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, url := range []string{
		srv.URL + "/api/jobs?limit=0",
		srv.URL + "/api/jobs?limit=1000",
		srv.URL + "/api/jobs?limit=abc",
		srv.URL + "/api/jobs?offset=-1",
		srv.URL + "/api/jobs?search=x",
	} {
		code := getJSON(t, url, nil)
		assert.Equal(t, http.StatusBadRequest, code, url)
	}
}

func TestGetJob(t *testing.T) {
	srv, st := newTestServer(t)
	seedJobs(t, st, testJob("1", "Backend Engineer"))

	var job model.Job
	code := getJSON(t, srv.URL+"/api/jobs/1", &job)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Backend Engineer", job.Title)

	code = getJSON(t, srv.URL+"/api/jobs/404", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestFilterOptions(t *testing.T) {
	srv, st := newTestServer(t)
	seedJobs(t, st, testJob("1", "Backend Engineer"))

	var opts map[string]map[string]int
	code := getJSON(t, srv.URL+"/api/filters", &opts)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, opts["sources"]["remoteok"])
}

func TestTriggerIngestWithoutCoordinator(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/jobs/ingest", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
