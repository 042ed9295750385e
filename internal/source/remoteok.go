package source

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/nejcm/job-scanner/internal/model"
)

const remoteOKAPI = "https://remoteok.com/api"

// RemoteOKAdapter fetches postings from the RemoteOK public API.
// The first array element is a legal notice without an id and is dropped.
type RemoteOKAdapter struct {
	url    string
	client *http.Client
}

// NewRemoteOKAdapter creates an adapter against the public RemoteOK endpoint.
func NewRemoteOKAdapter(client *http.Client) *RemoteOKAdapter {
	return &RemoteOKAdapter{url: remoteOKAPI, client: client}
}

func (a *RemoteOKAdapter) Name() string { return "remoteok" }

// Fetch retrieves the full posting list as raw records.
func (a *RemoteOKAdapter) Fetch(ctx context.Context) ([]model.RawRecord, error) {
	body, err := getBody(ctx, a.client, a.url, a.Name())
	if err != nil {
		return nil, err
	}

	var items []model.RawRecord
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, &model.ParseError{Source: a.Name(), Err: err}
	}

	records := make([]model.RawRecord, 0, len(items))
	for _, item := range items {
		if item["id"] == nil {
			continue
		}
		records = append(records, item)
	}
	return records, nil
}
