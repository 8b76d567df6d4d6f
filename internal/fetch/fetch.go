// Package fetch implements the source fetchers: each one talks to a single
// external job source and emits raw, source-shaped records for the pipeline
// to extract.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/XploY04/jobs.ai/internal/model"
)

// getJSON performs a GET request and decodes the JSON response into out.
// Non-200 responses come back as *model.HTTPError so retry logic can
// inspect the status code and Retry-After hint.
func getJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", url, err)
	}
	return nil
}

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// techRoleKeywords is the prefilter applied to posting titles before a
// record is handed to the pipeline. Sources like HN and generic feeds carry
// plenty of non-engineering postings.
var techRoleKeywords = []string{
	"engineer", "developer", "software", "programmer",
	"backend", "back-end", "frontend", "front-end", "full stack", "fullstack", "full-stack",
	"devops", "sre", "platform", "infrastructure", "cloud",
	"data scientist", "data engineer", "machine learning", "ml engineer", "ai ",
	"security", "mobile", "ios", "android", "qa", "sdet", "architect",
}

// MatchesTechRole reports whether a posting title looks like an engineering
// role.
func MatchesTechRole(title string) bool {
	lower := strings.ToLower(title)
	for _, kw := range techRoleKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
