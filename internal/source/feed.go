package source

import (
	"context"
	"encoding/xml"
	"log/slog"
	"net/http"

	"github.com/nejcm/job-scanner/internal/model"
)

const weWorkRemotelyRSS = "https://weworkremotely.com/remote-jobs.rss"

type rssDocument struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

// parseFeed decodes an RSS document into raw records keyed the way the
// feed-style normalizer expects.
func parseFeed(data []byte, source string) ([]model.RawRecord, error) {
	var doc rssDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, &model.ParseError{Source: source, Err: err}
	}

	records := make([]model.RawRecord, 0, len(doc.Channel.Items))
	for _, item := range doc.Channel.Items {
		records = append(records, model.RawRecord{
			"title":       item.Title,
			"link":        item.Link,
			"description": item.Description,
			"pubDate":     item.PubDate,
		})
	}
	return records, nil
}

// WeWorkRemotelyAdapter fetches the We Work Remotely RSS feed.
type WeWorkRemotelyAdapter struct {
	url    string
	client *http.Client
}

// NewWeWorkRemotelyAdapter creates an adapter against the public feed.
func NewWeWorkRemotelyAdapter(client *http.Client) *WeWorkRemotelyAdapter {
	return &WeWorkRemotelyAdapter{url: weWorkRemotelyRSS, client: client}
}

func (a *WeWorkRemotelyAdapter) Name() string { return "weworkremotely" }

// Fetch retrieves and parses the feed into raw records.
func (a *WeWorkRemotelyAdapter) Fetch(ctx context.Context) ([]model.RawRecord, error) {
	body, err := getBody(ctx, a.client, a.url, a.Name())
	if err != nil {
		return nil, err
	}
	return parseFeed(body, a.Name())
}

// RSSAdapter fetches a configured list of arbitrary RSS feeds under one
// source name. A single failing feed is skipped, not fatal: the adapter
// reports whatever the remaining feeds produced.
type RSSAdapter struct {
	feeds  []string
	client *http.Client
	logger *slog.Logger
}

// NewRSSAdapter creates an adapter over the given feed URLs.
func NewRSSAdapter(feeds []string, client *http.Client, logger *slog.Logger) *RSSAdapter {
	return &RSSAdapter{feeds: feeds, client: client, logger: logger}
}

func (a *RSSAdapter) Name() string { return "rss" }

// Fetch retrieves every feed and concatenates their items.
func (a *RSSAdapter) Fetch(ctx context.Context) ([]model.RawRecord, error) {
	var all []model.RawRecord
	for _, url := range a.feeds {
		body, err := getBody(ctx, a.client, url, a.Name())
		if err != nil {
			a.logger.Warn("skipping feed", "url", url, "error", err)
			continue
		}
		records, err := parseFeed(body, a.Name())
		if err != nil {
			a.logger.Warn("skipping unparseable feed", "url", url, "error", err)
			continue
		}
		for _, rec := range records {
			rec["feedUrl"] = url
			all = append(all, rec)
		}
	}
	return all, nil
}
