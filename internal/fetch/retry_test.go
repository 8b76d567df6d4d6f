package fetch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/XploY04/jobs.ai/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockFetcher calls a function on each invocation, tracking call count.
type mockFetcher struct {
	calls int
	fn    func(attempt int) ([]model.RawRecord, error)
}

func (m *mockFetcher) Name() string { return "mock" }

func (m *mockFetcher) FetchJobs(_ context.Context) ([]model.RawRecord, error) {
	m.calls++
	return m.fn(m.calls)
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	raws := []model.RawRecord{{"id": "1"}}
	mock := &mockFetcher{fn: func(_ int) ([]model.RawRecord, error) {
		return raws, nil
	}}

	rf := NewRetryFetcher(mock, 2, 10*time.Millisecond, discardLogger())
	got, err := rf.FetchJobs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("unexpected records: %v", got)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call, got %d", mock.calls)
	}
}

func TestRetry_RetriesOn5xx_SucceedsOnSecondAttempt(t *testing.T) {
	raws := []model.RawRecord{{"id": "1"}}
	mock := &mockFetcher{fn: func(attempt int) ([]model.RawRecord, error) {
		if attempt == 1 {
			return nil, &model.HTTPError{StatusCode: 503, Err: errors.New("service unavailable")}
		}
		return raws, nil
	}}

	rf := NewRetryFetcher(mock, 2, 10*time.Millisecond, discardLogger())
	got, err := rf.FetchJobs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if mock.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.calls)
	}
}

func TestRetry_DoesNotRetryOn4xx(t *testing.T) {
	mock := &mockFetcher{fn: func(_ int) ([]model.RawRecord, error) {
		return nil, &model.HTTPError{StatusCode: 404, Err: errors.New("not found")}
	}}

	rf := NewRetryFetcher(mock, 2, 10*time.Millisecond, discardLogger())
	_, err := rf.FetchJobs(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 404 {
		t.Fatalf("expected 404 HTTPError, got %v", err)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call, got %d", mock.calls)
	}
}

func TestRetry_GivesUpAfterMaxRetries(t *testing.T) {
	mock := &mockFetcher{fn: func(_ int) ([]model.RawRecord, error) {
		return nil, &model.HTTPError{StatusCode: 500, Err: errors.New("boom")}
	}}

	rf := NewRetryFetcher(mock, 2, time.Millisecond, discardLogger())
	_, err := rf.FetchJobs(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if mock.calls != 3 {
		t.Fatalf("expected 3 calls (1 + 2 retries), got %d", mock.calls)
	}
}

func TestRetry_HonorsRetryAfter(t *testing.T) {
	mock := &mockFetcher{fn: func(attempt int) ([]model.RawRecord, error) {
		if attempt == 1 {
			return nil, &model.HTTPError{StatusCode: 429, RetryAfter: 20 * time.Millisecond, Err: errors.New("rate limited")}
		}
		return nil, nil
	}}

	rf := NewRetryFetcher(mock, 1, time.Hour, discardLogger())
	start := time.Now()
	_, err := rf.FetchJobs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	elapsed := time.Since(start)
	if elapsed < 20*time.Millisecond {
		t.Fatalf("retried before Retry-After elapsed: %v", elapsed)
	}
	if elapsed > time.Second {
		t.Fatalf("ignored Retry-After in favor of base delay: %v", elapsed)
	}
}

func TestRetry_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mock := &mockFetcher{fn: func(_ int) ([]model.RawRecord, error) {
		cancel()
		return nil, &model.HTTPError{StatusCode: 500, Err: errors.New("boom")}
	}}

	rf := NewRetryFetcher(mock, 3, time.Hour, discardLogger())
	_, err := rf.FetchJobs(ctx)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call, got %d", mock.calls)
	}
}
