package fetch

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/XploY04/jobs.ai/internal/extract"
	"github.com/XploY04/jobs.ai/internal/model"
)

// maxFeedEntries caps how many items are taken from one feed per cycle.
const maxFeedEntries = 100

// RSSFeedFetcher pulls job postings from a configured list of RSS 2.0
// feeds (We Work Remotely, remotive, and similar job boards publish one).
// A broken feed costs only its own entries.
type RSSFeedFetcher struct {
	feedURLs []string
	client   *http.Client
	logger   *slog.Logger
}

func NewRSSFeedFetcher(feedURLs []string, client *http.Client, logger *slog.Logger) *RSSFeedFetcher {
	return &RSSFeedFetcher{feedURLs: feedURLs, client: client, logger: logger}
}

func (f *RSSFeedFetcher) Name() string {
	return extract.SourceRSSFeed
}

type rssDocument struct {
	Channel struct {
		Title string    `xml:"title"`
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
}

func (f *RSSFeedFetcher) FetchJobs(ctx context.Context) ([]model.RawRecord, error) {
	var raws []model.RawRecord
	for _, feedURL := range f.feedURLs {
		items, err := f.fetchFeed(ctx, feedURL)
		if err != nil {
			if ctx.Err() != nil {
				return raws, ctx.Err()
			}
			f.logger.Warn("rss feed fetch failed", "feed", feedURL, "error", err)
			continue
		}
		for _, item := range items {
			if raw := flattenFeedItem(item, feedURL); raw != nil {
				raws = append(raws, raw)
			}
		}
	}
	return raws, nil
}

func (f *RSSFeedFetcher) fetchFeed(ctx context.Context, feedURL string) ([]rssItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading feed body: %w", err)
	}

	var doc rssDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	items := doc.Channel.Items
	if len(items) > maxFeedEntries {
		items = items[:maxFeedEntries]
	}
	return items, nil
}

// flattenFeedItem converts a feed entry into a raw record. Job feed titles
// usually follow "Role at Company" or "Company: Role". Returns nil for
// entries that do not look like engineering postings.
func flattenFeedItem(item rssItem, feedURL string) model.RawRecord {
	title := strings.TrimSpace(item.Title)
	if title == "" || !MatchesTechRole(title) {
		return nil
	}

	var company string
	if idx := strings.LastIndex(title, " at "); idx > 0 {
		company = strings.TrimSpace(title[idx+len(" at "):])
		title = strings.TrimSpace(title[:idx])
	} else if idx := strings.Index(title, ": "); idx > 0 {
		company = strings.TrimSpace(title[:idx])
		title = strings.TrimSpace(title[idx+2:])
	}

	description := extractText(item.Description)
	lower := strings.ToLower(title + " " + description)

	// Feeds reuse and rewrite GUIDs inconsistently, so the entry id is a
	// digest of the stable link instead.
	seed := item.Link
	if seed == "" {
		seed = item.GUID
	}
	sum := md5.Sum([]byte(seed))
	entryID := hex.EncodeToString(sum[:])

	return model.RawRecord{
		"entry_id":     entryID,
		"title":        title,
		"company":      company,
		"description":  description,
		"location_raw": "",
		"remote":       strings.Contains(lower, "remote"),
		"apply_url":    item.Link,
		"posted_at":    item.PubDate,
		"feed_url":     feedURL,
	}
}
