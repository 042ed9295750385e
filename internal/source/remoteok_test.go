package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nejcm/job-scanner/internal/model"
)

func TestRemoteOKAdapterFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The real API prefixes the list with a legal notice that has
		// no id field.
		w.Write([]byte(`[
			{"legal": "API terms of use"},
			{"id": 1, "position": "Go Engineer", "company": "Acme"},
			{"id": 2, "position": "SRE", "company": "Globex"}
		]`))
	}))
	defer srv.Close()

	adapter := NewRemoteOKAdapter(srv.Client())
	adapter.url = srv.URL

	records, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2 (notice dropped)", len(records))
	}
	if records[0]["position"] != "Go Engineer" {
		t.Errorf("position = %v", records[0]["position"])
	}
}

func TestRemoteOKAdapterHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	adapter := NewRemoteOKAdapter(srv.Client())
	adapter.url = srv.URL

	_, err := adapter.Fetch(context.Background())
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d", httpErr.StatusCode)
	}
	if httpErr.RetryAfter != 120*time.Second {
		t.Errorf("retry-after = %v, want 120s", httpErr.RetryAfter)
	}
}

func TestRemoteOKAdapterParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	adapter := NewRemoteOKAdapter(srv.Client())
	adapter.url = srv.URL

	_, err := adapter.Fetch(context.Background())
	var parseErr *model.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if parseErr.Source != "remoteok" {
		t.Errorf("source = %q", parseErr.Source)
	}
}

func TestWorkingNomadsAdapterFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id": 7, "title": "Platform Engineer", "company_name": "Globex"}]`))
	}))
	defer srv.Close()

	adapter := NewWorkingNomadsAdapter(srv.Client())
	adapter.url = srv.URL

	records, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 1 || records[0]["title"] != "Platform Engineer" {
		t.Errorf("records = %+v", records)
	}
}
