package source

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/nejcm/job-scanner/internal/model"
)

const workingNomadsAPI = "https://www.workingnomads.com/api/exposed_jobs"

// WorkingNomadsAdapter fetches postings from the Working Nomads public API.
type WorkingNomadsAdapter struct {
	url    string
	client *http.Client
}

// NewWorkingNomadsAdapter creates an adapter against the public endpoint.
func NewWorkingNomadsAdapter(client *http.Client) *WorkingNomadsAdapter {
	return &WorkingNomadsAdapter{url: workingNomadsAPI, client: client}
}

func (a *WorkingNomadsAdapter) Name() string { return "workingnomads" }

// Fetch retrieves the full posting list as raw records.
func (a *WorkingNomadsAdapter) Fetch(ctx context.Context) ([]model.RawRecord, error) {
	body, err := getBody(ctx, a.client, a.url, a.Name())
	if err != nil {
		return nil, err
	}

	var items []model.RawRecord
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, &model.ParseError{Source: a.Name(), Err: err}
	}
	return items, nil
}
