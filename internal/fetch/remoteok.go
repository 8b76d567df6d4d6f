package fetch

import (
	"context"
	"fmt"
	"net/http"

	"github.com/XploY04/jobs.ai/internal/extract"
	"github.com/XploY04/jobs.ai/internal/model"
)

const defaultRemoteOKURL = "https://remoteok.com/api"

// RemoteOKFetcher pulls the RemoteOK public API feed. The feed is a JSON
// array whose first element is a legal notice rather than a posting.
type RemoteOKFetcher struct {
	baseURL string
	client  *http.Client
}

func NewRemoteOKFetcher(baseURL string, client *http.Client) *RemoteOKFetcher {
	if baseURL == "" {
		baseURL = defaultRemoteOKURL
	}
	return &RemoteOKFetcher{baseURL: baseURL, client: client}
}

func (f *RemoteOKFetcher) Name() string {
	return extract.SourceRemoteOK
}

func (f *RemoteOKFetcher) FetchJobs(ctx context.Context) ([]model.RawRecord, error) {
	var entries []model.RawRecord
	headers := map[string]string{"User-Agent": "jobs.ai/1.0"}
	if err := getJSON(ctx, f.client, f.baseURL, headers, &entries); err != nil {
		return nil, fmt.Errorf("remoteok fetch: %w", err)
	}

	raws := make([]model.RawRecord, 0, len(entries))
	for _, entry := range entries {
		position, _ := entry["position"].(string)
		if position == "" {
			continue // the leading legal-notice element has no position
		}
		if !MatchesTechRole(position) {
			continue
		}
		if desc, ok := entry["description"].(string); ok {
			entry["description"] = extractText(desc)
		}
		raws = append(raws, entry)
	}
	return raws, nil
}
