package fetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/XploY04/jobs.ai/internal/extract"
	"github.com/XploY04/jobs.ai/internal/model"
)

const (
	defaultAlgoliaURL  = "https://hn.algolia.com/api/v1"
	defaultFirebaseURL = "https://hacker-news.firebaseio.com/v0"

	// maxHNComments bounds the work per cycle; the monthly thread can run
	// past a thousand top-level comments.
	maxHNComments = 400
)

// HackerNewsFetcher scrapes the monthly "Ask HN: Who is hiring?" thread.
// It locates the latest thread via Algolia search, pulls the comment tree
// from the Algolia items endpoint, and falls back to the Firebase API when
// that fails. Each top-level comment becomes one raw record.
type HackerNewsFetcher struct {
	algoliaURL  string
	firebaseURL string
	client      *http.Client
}

func NewHackerNewsFetcher(algoliaURL, firebaseURL string, client *http.Client) *HackerNewsFetcher {
	if algoliaURL == "" {
		algoliaURL = defaultAlgoliaURL
	}
	if firebaseURL == "" {
		firebaseURL = defaultFirebaseURL
	}
	return &HackerNewsFetcher{algoliaURL: algoliaURL, firebaseURL: firebaseURL, client: client}
}

func (f *HackerNewsFetcher) Name() string {
	return extract.SourceHackerNews
}

type algoliaSearchResponse struct {
	Hits []struct {
		ObjectID string `json:"objectID"`
		Title    string `json:"title"`
	} `json:"hits"`
}

type algoliaItem struct {
	ID        int64         `json:"id"`
	CreatedAt int64         `json:"created_at_i"`
	Text      string        `json:"text"`
	Author    string        `json:"author"`
	Children  []algoliaItem `json:"children"`
}

func (f *HackerNewsFetcher) FetchJobs(ctx context.Context) ([]model.RawRecord, error) {
	threadID, err := f.findHiringThread(ctx)
	if err != nil {
		return nil, fmt.Errorf("hackernews fetch: %w", err)
	}

	comments, err := f.fetchCommentsAlgolia(ctx, threadID)
	if err != nil {
		comments, err = f.fetchCommentsFirebase(ctx, threadID)
		if err != nil {
			return nil, fmt.Errorf("hackernews fetch for thread %s: %w", threadID, err)
		}
	}

	raws := make([]model.RawRecord, 0, len(comments))
	for _, c := range comments {
		if raw := parseHiringComment(c); raw != nil {
			raws = append(raws, raw)
		}
		if len(raws) >= maxHNComments {
			break
		}
	}
	return raws, nil
}

// findHiringThread returns the story id of the most recent hiring thread.
func (f *HackerNewsFetcher) findHiringThread(ctx context.Context) (string, error) {
	searchURL := f.algoliaURL + "/search_by_date?query=%22who%20is%20hiring%22&tags=story,author_whoishiring&hitsPerPage=10"

	var resp algoliaSearchResponse
	if err := getJSON(ctx, f.client, searchURL, nil, &resp); err != nil {
		return "", fmt.Errorf("searching hiring thread: %w", err)
	}
	for _, hit := range resp.Hits {
		if strings.Contains(strings.ToLower(hit.Title), "who is hiring") {
			return hit.ObjectID, nil
		}
	}
	return "", fmt.Errorf("no hiring thread found")
}

func (f *HackerNewsFetcher) fetchCommentsAlgolia(ctx context.Context, threadID string) ([]algoliaItem, error) {
	var item algoliaItem
	if err := getJSON(ctx, f.client, f.algoliaURL+"/items/"+threadID, nil, &item); err != nil {
		return nil, err
	}
	return item.Children, nil
}

// fetchCommentsFirebase rebuilds the top-level comment list one item at a
// time. Slower than Algolia but survives its outages.
func (f *HackerNewsFetcher) fetchCommentsFirebase(ctx context.Context, threadID string) ([]algoliaItem, error) {
	var story struct {
		Kids []int64 `json:"kids"`
	}
	if err := getJSON(ctx, f.client, fmt.Sprintf("%s/item/%s.json", f.firebaseURL, threadID), nil, &story); err != nil {
		return nil, err
	}

	kids := story.Kids
	if len(kids) > maxHNComments {
		kids = kids[:maxHNComments]
	}

	comments := make([]algoliaItem, 0, len(kids))
	for _, kid := range kids {
		var item struct {
			ID      int64  `json:"id"`
			Time    int64  `json:"time"`
			Text    string `json:"text"`
			By      string `json:"by"`
			Deleted bool   `json:"deleted"`
			Dead    bool   `json:"dead"`
		}
		if err := getJSON(ctx, f.client, fmt.Sprintf("%s/item/%d.json", f.firebaseURL, kid), nil, &item); err != nil {
			return nil, err
		}
		if item.Deleted || item.Dead {
			continue
		}
		comments = append(comments, algoliaItem{
			ID:        item.ID,
			CreatedAt: item.Time,
			Text:      item.Text,
			Author:    item.By,
		})
	}
	return comments, nil
}

// parseHiringComment turns one top-level comment into a raw record. Hiring
// comments conventionally open with "Company | Role | Location | ...".
// Returns nil for comments that do not look like engineering postings.
func parseHiringComment(c algoliaItem) model.RawRecord {
	text := htmlToLines(c.Text)
	if text == "" {
		return nil
	}

	lines := strings.SplitN(text, "\n", 2)
	header := lines[0]

	var company, title, location string
	segments := strings.Split(header, "|")
	for i := range segments {
		segments[i] = strings.TrimSpace(segments[i])
	}
	company = segments[0]
	if len(segments) > 1 {
		title = segments[1]
	}
	if len(segments) > 2 {
		location = segments[2]
	}

	// Headers sometimes swap role and company; take whichever segment
	// looks like an engineering title.
	if !MatchesTechRole(title) {
		if MatchesTechRole(company) {
			company, title = title, company
		} else if MatchesTechRole(text) {
			if title == "" {
				title = "Software Engineer"
			}
		} else {
			return nil
		}
	}

	lower := strings.ToLower(text)
	return model.RawRecord{
		"hn_comment_id": fmt.Sprintf("%d", c.ID),
		"title":         title,
		"company":       company,
		"description":   text,
		"location_raw":  location,
		"remote":        strings.Contains(lower, "remote"),
		"apply_url":     firstURL(text),
		"hn_time":       c.CreatedAt,
		"author":        c.Author,
	}
}
