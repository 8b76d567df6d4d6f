package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/XploY04/jobs.ai/internal/extract"
	"github.com/XploY04/jobs.ai/internal/model"
)

const defaultJSearchURL = "https://jsearch.p.rapidapi.com/search"

// JSearchFetcher queries the JSearch aggregator on RapidAPI.
type JSearchFetcher struct {
	baseURL  string
	apiKey   string
	queries  []string
	numPages int
	client   *http.Client
	logger   *slog.Logger
}

// NewJSearchFetcher creates a fetcher that runs one search per configured
// query string. One query's failure costs only that query's results.
func NewJSearchFetcher(baseURL, apiKey string, queries []string, numPages int, client *http.Client, logger *slog.Logger) *JSearchFetcher {
	if baseURL == "" {
		baseURL = defaultJSearchURL
	}
	if numPages <= 0 {
		numPages = 1
	}
	return &JSearchFetcher{
		baseURL:  baseURL,
		apiKey:   apiKey,
		queries:  queries,
		numPages: numPages,
		client:   client,
		logger:   logger,
	}
}

func (f *JSearchFetcher) Name() string {
	return extract.SourceJSearch
}

func (f *JSearchFetcher) FetchJobs(ctx context.Context) ([]model.RawRecord, error) {
	headers := map[string]string{
		"X-RapidAPI-Key":  f.apiKey,
		"X-RapidAPI-Host": "jsearch.p.rapidapi.com",
	}

	var raws []model.RawRecord
	for _, query := range f.queries {
		params := url.Values{}
		params.Set("query", query)
		params.Set("page", "1")
		params.Set("num_pages", fmt.Sprintf("%d", f.numPages))

		var resp struct {
			Data []model.RawRecord `json:"data"`
		}
		if err := getJSON(ctx, f.client, f.baseURL+"?"+params.Encode(), headers, &resp); err != nil {
			if ctx.Err() != nil {
				return raws, ctx.Err()
			}
			f.logger.Warn("jsearch query failed", "query", query, "error", err)
			continue
		}
		raws = append(raws, resp.Data...)
	}
	return raws, nil
}
