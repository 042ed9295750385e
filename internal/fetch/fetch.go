// Package fetch acquires raw records from every enabled source adapter,
// sequentially, with disk-backed caching, bounded retry and inter-source
// pacing.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nejcm/job-scanner/internal/model"
)

// SourceBatch is one source's raw payload, in adapter input order.
type SourceBatch struct {
	Source  string
	Records []model.RawRecord
}

// Policy bundles the timing knobs of the orchestrator. Tests shrink the
// durations; production uses DefaultPolicy.
type Policy struct {
	Attempts  int           // fetch attempts per source, including the first
	BaseDelay time.Duration // backoff before the second attempt, doubled after
	MaxDelay  time.Duration // backoff ceiling
	Timeout   time.Duration // per-attempt deadline, enforced regardless of adapter internals
	Pause     time.Duration // gap between sources, none after the last
	CacheTTL  time.Duration // age limit for a cache entry to be served
}

// DefaultPolicy returns the production policy: 3 attempts with
// min(1s·2^attempt, 10s) backoff, a 10s per-attempt timeout, a 1s pause
// between sources and a 1h cache TTL.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:  3,
		BaseDelay: 1 * time.Second,
		MaxDelay:  10 * time.Second,
		Timeout:   10 * time.Second,
		Pause:     1 * time.Second,
		CacheTTL:  1 * time.Hour,
	}
}

// Orchestrator wraps source adapters with caching, retry and pacing.
type Orchestrator struct {
	cache  model.CacheStore
	policy Policy
	logger *slog.Logger
}

// New creates an orchestrator backed by the given cache store.
func New(cache model.CacheStore, policy Policy, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{cache: cache, policy: policy, logger: logger}
}

// FetchAll produces one batch per adapter, preserving input order. Sources
// are contacted strictly sequentially. A source that still fails after the
// last retry aborts the whole run; callers needing per-source resilience
// must wrap individual adapters themselves.
func (o *Orchestrator) FetchAll(ctx context.Context, adapters []model.SourceAdapter) ([]SourceBatch, error) {
	batches := make([]SourceBatch, 0, len(adapters))

	for i, adapter := range adapters {
		name := adapter.Name()

		if payload, ok := o.cached(name); ok {
			o.logger.Debug("cache hit", "source", name, "records", len(payload))
			batches = append(batches, SourceBatch{Source: name, Records: payload})
			continue
		}

		records, err := o.fetchWithRetry(ctx, adapter)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", name, err)
		}

		// Best-effort persist; a failed write never affects the run.
		if err := o.cache.Put(name, records); err != nil {
			o.logger.Debug("cache write failed", "source", name, "error", err)
		}

		o.logger.Info("fetched source", "source", name, "records", len(records))
		batches = append(batches, SourceBatch{Source: name, Records: records})

		if i < len(adapters)-1 && o.policy.Pause > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(o.policy.Pause):
			}
		}
	}

	return batches, nil
}

// cached returns the source's payload if an unexpired entry exists.
func (o *Orchestrator) cached(source string) ([]model.RawRecord, bool) {
	payload, capturedAt, ok := o.cache.Get(source)
	if !ok {
		return nil, false
	}
	if time.Since(capturedAt) >= o.policy.CacheTTL {
		return nil, false
	}
	return payload, true
}

func (o *Orchestrator) fetchWithRetry(ctx context.Context, adapter model.SourceAdapter) ([]model.RawRecord, error) {
	var lastErr error

	for attempt := 0; attempt < o.policy.Attempts; attempt++ {
		records, err := o.fetchOnce(ctx, adapter)
		if err == nil {
			return records, nil
		}
		if !isRetryable(ctx, err) {
			return nil, err
		}
		lastErr = err

		if attempt < o.policy.Attempts-1 {
			delay := o.backoffDelay(attempt)
			attrs := []any{
				"source", adapter.Name(),
				"attempt", attempt+1,
				"max_attempts", o.policy.Attempts,
				"delay", delay,
				"error", err,
			}
			// The backoff formula is fixed, but an upstream Retry-After
			// hint is worth seeing when debugging rate limits.
			var httpErr *model.HTTPError
			if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
				attrs = append(attrs, "retry_after", httpErr.RetryAfter)
			}
			o.logger.Warn("source fetch failed, retrying", attrs...)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
		}
	}

	return nil, lastErr
}

// fetchOnce runs a single attempt under the per-attempt timeout.
func (o *Orchestrator) fetchOnce(ctx context.Context, adapter model.SourceAdapter) ([]model.RawRecord, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, o.policy.Timeout)
	defer cancel()
	return adapter.Fetch(attemptCtx)
}

// backoffDelay computes min(BaseDelay · 2^attempt, MaxDelay) for a 0-based
// attempt index.
func (o *Orchestrator) backoffDelay(attempt int) time.Duration {
	delay := o.policy.BaseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= o.policy.MaxDelay {
			return o.policy.MaxDelay
		}
	}
	if delay > o.policy.MaxDelay {
		return o.policy.MaxDelay
	}
	return delay
}

// isRetryable reports whether a failed attempt is worth repeating. Timeouts
// and non-success responses are transient; malformed payloads are not, and a
// cancelled run stops immediately.
func isRetryable(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	// Parent context cancelled or expired: the run is over.
	if ctx.Err() != nil {
		return false
	}
	var parseErr *model.ParseError
	if errors.As(err, &parseErr) {
		return false
	}
	return true
}
