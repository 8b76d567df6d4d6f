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

const defaultAdzunaURL = "https://api.adzuna.com/v1/api/jobs"

// AdzunaFetcher queries the Adzuna search API, one request per configured
// country code.
type AdzunaFetcher struct {
	baseURL   string
	appID     string
	appKey    string
	countries []string
	query     string
	perPage   int
	client    *http.Client
	logger    *slog.Logger
}

func NewAdzunaFetcher(baseURL, appID, appKey string, countries []string, query string, perPage int, client *http.Client, logger *slog.Logger) *AdzunaFetcher {
	if baseURL == "" {
		baseURL = defaultAdzunaURL
	}
	if perPage <= 0 {
		perPage = 50
	}
	if query == "" {
		query = "software engineer"
	}
	return &AdzunaFetcher{
		baseURL:   baseURL,
		appID:     appID,
		appKey:    appKey,
		countries: countries,
		query:     query,
		perPage:   perPage,
		client:    client,
		logger:    logger,
	}
}

func (f *AdzunaFetcher) Name() string {
	return extract.SourceAdzuna
}

func (f *AdzunaFetcher) FetchJobs(ctx context.Context) ([]model.RawRecord, error) {
	var raws []model.RawRecord
	for _, country := range f.countries {
		params := url.Values{}
		params.Set("app_id", f.appID)
		params.Set("app_key", f.appKey)
		params.Set("results_per_page", fmt.Sprintf("%d", f.perPage))
		params.Set("what", f.query)
		params.Set("content-type", "application/json")

		searchURL := fmt.Sprintf("%s/%s/search/1?%s", f.baseURL, country, params.Encode())

		var resp struct {
			Results []model.RawRecord `json:"results"`
		}
		if err := getJSON(ctx, f.client, searchURL, nil, &resp); err != nil {
			if ctx.Err() != nil {
				return raws, ctx.Err()
			}
			f.logger.Warn("adzuna country fetch failed", "country", country, "error", err)
			continue
		}

		for _, result := range resp.Results {
			// The payload omits the query country; the extractor needs it
			// for currency defaults.
			result["_country"] = country
			raws = append(raws, result)
		}
	}
	return raws, nil
}
