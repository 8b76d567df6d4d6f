package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/XploY04/jobs.ai/internal/model"
)

// HostRateLimiter enforces a minimum delay between requests to the same
// upstream host. ATS board fetchers hit the same backend once per company
// slug, so all of them share one limiter instance.
type HostRateLimiter struct {
	mu       sync.Mutex
	lastCall map[string]time.Time
	minDelay time.Duration
}

// NewHostRateLimiter creates a rate limiter that enforces minDelay between
// consecutive requests to the same host key.
func NewHostRateLimiter(minDelay time.Duration) *HostRateLimiter {
	return &HostRateLimiter{
		lastCall: make(map[string]time.Time),
		minDelay: minDelay,
	}
}

// Wait blocks until enough time has passed since the last request to the
// given host. Returns an error if the context is cancelled while waiting.
func (r *HostRateLimiter) Wait(ctx context.Context, host string) error {
	r.mu.Lock()
	last, ok := r.lastCall[host]
	now := time.Now()

	if !ok {
		r.lastCall[host] = now
		r.mu.Unlock()
		return nil
	}

	elapsed := now.Sub(last)
	if elapsed >= r.minDelay {
		r.lastCall[host] = now
		r.mu.Unlock()
		return nil
	}

	remaining := r.minDelay - elapsed
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", host, ctx.Err())
	case <-time.After(remaining):
	}

	// Record the actual time after waiting.
	r.mu.Lock()
	r.lastCall[host] = time.Now()
	r.mu.Unlock()

	return nil
}

// RateLimitedFetcher is a decorator that enforces host-level rate limiting
// before delegating to the wrapped fetcher.
type RateLimitedFetcher struct {
	inner   model.SourceFetcher
	limiter *HostRateLimiter
	host    string
}

// NewRateLimitedFetcher wraps a SourceFetcher with host-level rate limiting.
func NewRateLimitedFetcher(inner model.SourceFetcher, limiter *HostRateLimiter, host string) *RateLimitedFetcher {
	return &RateLimitedFetcher{
		inner:   inner,
		limiter: limiter,
		host:    host,
	}
}

func (f *RateLimitedFetcher) Name() string {
	return f.inner.Name()
}

// FetchJobs waits for the rate limiter to allow a request, then delegates
// to the wrapped fetcher.
func (f *RateLimitedFetcher) FetchJobs(ctx context.Context) ([]model.RawRecord, error) {
	if err := f.limiter.Wait(ctx, f.host); err != nil {
		return nil, err
	}
	return f.inner.FetchJobs(ctx)
}
