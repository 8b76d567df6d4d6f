package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const remoteokFixture = `[
	{"legal": "API terms of service apply."},
	{"id": 101, "position": "Senior Backend Engineer", "company": "Acme",
	 "description": "<p>Build &amp; run services</p>", "epoch": 1700000000,
	 "url": "https://remoteok.com/l/101", "tags": ["golang"]},
	{"id": 102, "position": "Head of Sales", "company": "Acme",
	 "description": "Sell things", "url": "https://remoteok.com/l/102"}
]`

func TestRemoteOKFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("expected a User-Agent header")
		}
		w.Write([]byte(remoteokFixture))
	}))
	defer srv.Close()

	f := NewRemoteOKFetcher(srv.URL, srv.Client())
	if f.Name() != "remoteok" {
		t.Fatalf("unexpected name %q", f.Name())
	}

	raws, err := f.FetchJobs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(raws) != 1 {
		t.Fatalf("expected 1 record (legal notice and sales role filtered), got %d", len(raws))
	}
	if raws[0]["position"] != "Senior Backend Engineer" {
		t.Fatalf("unexpected record: %v", raws[0])
	}
	if raws[0]["description"] != "Build & run services" {
		t.Fatalf("description not cleaned: %q", raws[0]["description"])
	}
}

func TestRemoteOKFetcher_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewRemoteOKFetcher(srv.URL, srv.Client())
	if _, err := f.FetchJobs(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}
}
