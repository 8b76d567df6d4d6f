package fetch

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Remote Jobs</title>
    <item>
      <title>Senior Go Developer at Initech</title>
      <link>https://jobs.example/1</link>
      <guid>jobs-example-1</guid>
      <description>&lt;p&gt;Fully remote role building APIs.&lt;/p&gt;</description>
      <pubDate>Mon, 10 Aug 2026 09:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Office Manager at Initech</title>
      <link>https://jobs.example/2</link>
      <description>On-site admin role.</description>
    </item>
  </channel>
</rss>`

func TestRSSFeedFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(rssFixture))
	}))
	defer srv.Close()

	f := NewRSSFeedFetcher([]string{srv.URL}, srv.Client(), discardLogger())
	raws, err := f.FetchJobs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(raws) != 1 {
		t.Fatalf("expected 1 record (office manager filtered), got %d", len(raws))
	}

	raw := raws[0]
	if raw["title"] != "Senior Go Developer" {
		t.Errorf("title = %q", raw["title"])
	}
	if raw["company"] != "Initech" {
		t.Errorf("company = %q", raw["company"])
	}
	wantID := md5Hex("https://jobs.example/1")
	if raw["entry_id"] != wantID {
		t.Errorf("entry_id = %q, want %q", raw["entry_id"], wantID)
	}
	if raw["apply_url"] != "https://jobs.example/1" {
		t.Errorf("apply_url = %q", raw["apply_url"])
	}
	if raw["description"] != "Fully remote role building APIs." {
		t.Errorf("description = %q", raw["description"])
	}
	if remote, _ := raw["remote"].(bool); !remote {
		t.Error("expected remote = true")
	}
	if raw["feed_url"] != srv.URL {
		t.Errorf("feed_url = %q", raw["feed_url"])
	}
}

func TestFlattenFeedItem_ColonTitle(t *testing.T) {
	raw := flattenFeedItem(rssItem{
		Title: "Globex: Platform Engineer",
		Link:  "https://jobs.example/3",
	}, "feed")
	if raw == nil {
		t.Fatal("expected a record")
	}
	if raw["title"] != "Platform Engineer" || raw["company"] != "Globex" {
		t.Fatalf("unexpected split: title=%q company=%q", raw["title"], raw["company"])
	}
	if raw["entry_id"] != md5Hex("https://jobs.example/3") {
		t.Fatalf("entry_id = %q", raw["entry_id"])
	}
}

func TestFetchFeed_CapsEntries(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0"?><rss version="2.0"><channel><title>Big</title>`)
	for i := 0; i < maxFeedEntries+20; i++ {
		fmt.Fprintf(&sb, `<item><title>Backend Engineer %d at Acme</title><link>https://jobs.example/%d</link></item>`, i, i)
	}
	sb.WriteString(`</channel></rss>`)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(sb.String()))
	}))
	defer srv.Close()

	f := NewRSSFeedFetcher([]string{srv.URL}, srv.Client(), discardLogger())
	raws, err := f.FetchJobs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(raws) != maxFeedEntries {
		t.Fatalf("expected %d records, got %d", maxFeedEntries, len(raws))
	}
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestFetchJobsSkipsBrokenFeed(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(rssFixture))
	}))
	defer good.Close()

	f := NewRSSFeedFetcher([]string{broken.URL, good.URL}, good.Client(), discardLogger())
	raws, err := f.FetchJobs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(raws) != 1 {
		t.Fatalf("expected the good feed's record, got %d", len(raws))
	}
}
