package fetch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/nejcm/job-scanner/internal/model"
)

// fakeAdapter scripts a sequence of responses, one per Fetch call.
type fakeAdapter struct {
	name    string
	results []fakeResult
	calls   int
}

type fakeResult struct {
	records []model.RawRecord
	err     error
}

func (a *fakeAdapter) Name() string { return a.name }

func (a *fakeAdapter) Fetch(ctx context.Context) ([]model.RawRecord, error) {
	if a.calls >= len(a.results) {
		return nil, errors.New("unscripted call")
	}
	r := a.results[a.calls]
	a.calls++
	return r.records, r.err
}

// memoryStore is an in-memory CacheStore for tests.
type memoryStore struct {
	entries map[string]memoryEntry
	puts    int
}

type memoryEntry struct {
	payload    []model.RawRecord
	capturedAt time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: make(map[string]memoryEntry)}
}

func (s *memoryStore) Get(source string) ([]model.RawRecord, time.Time, bool) {
	e, ok := s.entries[source]
	return e.payload, e.capturedAt, ok
}

func (s *memoryStore) Put(source string, payload []model.RawRecord) error {
	s.puts++
	s.entries[source] = memoryEntry{payload: payload, capturedAt: time.Now()}
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastPolicy() Policy {
	return Policy{
		Attempts:  3,
		BaseDelay: time.Millisecond,
		MaxDelay:  4 * time.Millisecond,
		Timeout:   time.Second,
		Pause:     0,
		CacheTTL:  time.Hour,
	}
}

func TestFetchAllServesFreshCacheWithoutFetching(t *testing.T) {
	store := newMemoryStore()
	cachedPayload := []model.RawRecord{{"id": "1"}}
	store.entries["boards"] = memoryEntry{payload: cachedPayload, capturedAt: time.Now()}

	adapter := &fakeAdapter{name: "boards"}
	o := New(store, fastPolicy(), testLogger())

	batches, err := o.FetchAll(context.Background(), []model.SourceAdapter{adapter})
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if adapter.calls != 0 {
		t.Errorf("expected no fetch on cache hit, got %d calls", adapter.calls)
	}
	if len(batches) != 1 || len(batches[0].Records) != 1 {
		t.Fatalf("unexpected batches: %+v", batches)
	}
}

func TestFetchAllRefetchesExpiredCache(t *testing.T) {
	store := newMemoryStore()
	store.entries["boards"] = memoryEntry{
		payload:    []model.RawRecord{{"id": "stale"}},
		capturedAt: time.Now().Add(-2 * time.Hour),
	}

	adapter := &fakeAdapter{
		name:    "boards",
		results: []fakeResult{{records: []model.RawRecord{{"id": "fresh"}}}},
	}
	o := New(store, fastPolicy(), testLogger())

	batches, err := o.FetchAll(context.Background(), []model.SourceAdapter{adapter})
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if adapter.calls != 1 {
		t.Errorf("expected 1 fetch for expired cache, got %d", adapter.calls)
	}
	if got := batches[0].Records[0]["id"]; got != "fresh" {
		t.Errorf("expected fresh payload, got %v", got)
	}
}

func TestFetchAllRetriesThenSucceeds(t *testing.T) {
	adapter := &fakeAdapter{
		name: "boards",
		results: []fakeResult{
			{err: errors.New("connection reset")},
			{err: &model.HTTPError{StatusCode: 503, Err: errors.New("unavailable")}},
			{records: []model.RawRecord{{"id": "1"}}},
		},
	}
	o := New(newMemoryStore(), fastPolicy(), testLogger())

	batches, err := o.FetchAll(context.Background(), []model.SourceAdapter{adapter})
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if adapter.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", adapter.calls)
	}
	if len(batches[0].Records) != 1 {
		t.Errorf("unexpected records: %+v", batches[0].Records)
	}
}

func TestFetchAllFailsAfterLastAttempt(t *testing.T) {
	boom := errors.New("boom")
	adapter := &fakeAdapter{
		name:    "boards",
		results: []fakeResult{{err: boom}, {err: boom}, {err: boom}},
	}
	o := New(newMemoryStore(), fastPolicy(), testLogger())

	_, err := o.FetchAll(context.Background(), []model.SourceAdapter{adapter})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped cause, got %v", err)
	}
	if adapter.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", adapter.calls)
	}
}

func TestFetchAllDoesNotRetryParseErrors(t *testing.T) {
	adapter := &fakeAdapter{
		name: "boards",
		results: []fakeResult{
			{err: &model.ParseError{Source: "boards", Err: errors.New("bad json")}},
		},
	}
	o := New(newMemoryStore(), fastPolicy(), testLogger())

	_, err := o.FetchAll(context.Background(), []model.SourceAdapter{adapter})
	if err == nil {
		t.Fatal("expected error")
	}
	if adapter.calls != 1 {
		t.Errorf("parse errors must not be retried, got %d attempts", adapter.calls)
	}
}

func TestFetchAllStoresSuccessfulPayload(t *testing.T) {
	store := newMemoryStore()
	adapter := &fakeAdapter{
		name:    "boards",
		results: []fakeResult{{records: []model.RawRecord{{"id": "1"}}}},
	}
	o := New(store, fastPolicy(), testLogger())

	if _, err := o.FetchAll(context.Background(), []model.SourceAdapter{adapter}); err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if store.puts != 1 {
		t.Errorf("expected 1 cache write, got %d", store.puts)
	}
}

func TestFetchAllStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	adapter := &fakeAdapter{
		name:    "boards",
		results: []fakeResult{{err: context.Canceled}},
	}
	o := New(newMemoryStore(), fastPolicy(), testLogger())

	_, err := o.FetchAll(ctx, []model.SourceAdapter{adapter})
	if err == nil {
		t.Fatal("expected error on cancelled context")
	}
	if adapter.calls != 1 {
		t.Errorf("cancelled run must not retry, got %d attempts", adapter.calls)
	}
}

func TestRetryLogsRetryAfterHint(t *testing.T) {
	adapter := &fakeAdapter{
		name: "boards",
		results: []fakeResult{
			{err: &model.HTTPError{
				StatusCode: 429,
				RetryAfter: 120 * time.Second,
				Err:        errors.New("rate limited"),
			}},
			{records: []model.RawRecord{{"id": "1"}}},
		},
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	o := New(newMemoryStore(), fastPolicy(), logger)

	if _, err := o.FetchAll(context.Background(), []model.SourceAdapter{adapter}); err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if !strings.Contains(buf.String(), "retry_after=2m0s") {
		t.Errorf("retry log missing the upstream hint: %s", buf.String())
	}
}

func TestBackoffDelay(t *testing.T) {
	o := New(newMemoryStore(), DefaultPolicy(), testLogger())

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 10 * time.Second},
		{10, 10 * time.Second},
	}
	for _, tt := range tests {
		if got := o.backoffDelay(tt.attempt); got != tt.want {
			t.Errorf("backoffDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestFetchAllPreservesAdapterOrder(t *testing.T) {
	first := &fakeAdapter{name: "alpha", results: []fakeResult{{records: []model.RawRecord{{"id": "a"}}}}}
	second := &fakeAdapter{name: "beta", results: []fakeResult{{records: []model.RawRecord{{"id": "b"}}}}}
	o := New(newMemoryStore(), fastPolicy(), testLogger())

	batches, err := o.FetchAll(context.Background(), []model.SourceAdapter{first, second})
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(batches) != 2 || batches[0].Source != "alpha" || batches[1].Source != "beta" {
		t.Errorf("batch order not preserved: %+v", batches)
	}
}
