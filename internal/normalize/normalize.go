// Package normalize maps each source's raw record shape into the canonical
// Job record. Mappers are total: malformed input degrades to safe defaults,
// never to an error.
package normalize

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nejcm/job-scanner/internal/model"
)

// Mapper converts one raw record plus its source name into a canonical
// record. scrapedAt is the single run-wide scrape timestamp.
type Mapper interface {
	Map(raw model.RawRecord, source string, scrapedAt time.Time) model.Job
}

// ForSource selects the mapper for a source family. Unrecognized source
// names fall back to the feed-style mapping.
func ForSource(source string) Mapper {
	switch source {
	case "remoteok":
		return remoteOKMapper{}
	case "workingnomads":
		return workingNomadsMapper{}
	default:
		return feedMapper{}
	}
}

// remoteOKMapper handles the RemoteOK structured-API shape.
type remoteOKMapper struct{}

func (remoteOKMapper) Map(raw model.RawRecord, source string, scrapedAt time.Time) model.Job {
	sourceID := stringValue(raw["id"])
	if sourceID == "" {
		sourceID = uuid.NewString()
	}

	location := firstString(raw, "location")
	applyURL := firstString(raw, "url", "apply_url")
	if applyURL == "" {
		applyURL = "https://remoteok.com/l/" + sourceID
	}

	tags := stringSlice(raw["tags"])
	isRemote := !strings.Contains(strings.ToLower(location), "on-site") || anyTagRemote(tags)

	return model.Job{
		ID:              uuid.NewString(),
		Source:          source,
		SourceID:        sourceID,
		Title:           firstString(raw, "position"),
		Company:         firstString(raw, "company"),
		Location:        location,
		IsRemote:        isRemote,
		RemoteRegion:    defaultRegion(location),
		SalaryMin:       numberValue(raw["salary_min"]),
		SalaryMax:       numberValue(raw["salary_max"]),
		SalaryCurrency:  firstString(raw, "salary_currency"),
		TechTags:        lowerTags(tags),
		DescriptionText: StripMarkup(firstString(raw, "description")),
		ApplyURL:        applyURL,
		PostedAt:        parseTimestamp(raw["epoch"]),
		ScrapedAt:       scrapedAt,
		Raw:             raw,
	}
}

// workingNomadsMapper handles the Working Nomads structured-API shape.
type workingNomadsMapper struct{}

func (workingNomadsMapper) Map(raw model.RawRecord, source string, scrapedAt time.Time) model.Job {
	sourceID := stringValue(raw["id"])
	if sourceID == "" {
		sourceID = uuid.NewString()
	}
	location := firstString(raw, "location")

	return model.Job{
		ID:              uuid.NewString(),
		Source:          source,
		SourceID:        sourceID,
		Title:           firstString(raw, "title"),
		Company:         firstString(raw, "company_name"),
		Location:        location,
		IsRemote:        true,
		RemoteRegion:    defaultRegion(location),
		TechTags:        lowerTags(stringSlice(raw["categories"])),
		DescriptionText: StripMarkup(firstString(raw, "description")),
		ApplyURL:        firstString(raw, "url"),
		PostedAt:        parseTimestamp(raw["published_at"]),
		ScrapedAt:       scrapedAt,
		Raw:             raw,
	}
}

// feedMapper handles feed-style records (RSS items, crawled pages) and is
// the fallback for unknown sources.
type feedMapper struct{}

func (feedMapper) Map(raw model.RawRecord, source string, scrapedAt time.Time) model.Job {
	link := firstString(raw, "link", "applyUrl")
	sourceID := link
	if sourceID == "" {
		sourceID = uuid.NewString()
	}
	location := firstString(raw, "location")

	postedAt := parseTimestamp(raw["pubDate"])
	if postedAt == nil {
		postedAt = parseTimestamp(raw["postedAt"])
	}

	return model.Job{
		ID:              uuid.NewString(),
		Source:          source,
		SourceID:        sourceID,
		Title:           firstString(raw, "title"),
		Company:         firstString(raw, "company"),
		Location:        location,
		IsRemote:        true,
		RemoteRegion:    defaultRegion(location),
		TechTags:        []string{},
		DescriptionText: StripMarkup(firstString(raw, "description")),
		ApplyURL:        link,
		PostedAt:        postedAt,
		ScrapedAt:       scrapedAt,
		Raw:             raw,
	}
}

var markupTagRegex = regexp.MustCompile(`<[^>]+>`)

// StripMarkup converts HTML-ish text to plain text: unescape entities,
// remove tag-like substrings, collapse whitespace.
func StripMarkup(content string) string {
	unescaped := html.UnescapeString(content)
	plain := markupTagRegex.ReplaceAllString(unescaped, " ")
	return strings.Join(strings.Fields(plain), " ")
}

// firstString tries the candidate keys in order and returns the first
// non-empty trimmed string value.
func firstString(raw model.RawRecord, keys ...string) string {
	for _, key := range keys {
		if s := strings.TrimSpace(stringValue(raw[key])); s != "" {
			return s
		}
	}
	return ""
}

// stringValue renders the scalar shapes sources actually send for text
// fields. Anything else is treated as absent.
func stringValue(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	default:
		return ""
	}
}

func numberValue(v any) *float64 {
	switch value := v.(type) {
	case float64:
		return &value
	case int:
		f := float64(value)
		return &f
	case int64:
		f := float64(value)
		return &f
	default:
		return nil
	}
}

func stringSlice(v any) []string {
	switch value := v.(type) {
	case []string:
		return value
	case []any:
		out := make([]string, 0, len(value))
		for _, item := range value {
			if s := stringValue(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// lowerTags lowercases tags and drops duplicates, preserving first-seen
// order for display.
func lowerTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		lower := strings.ToLower(strings.TrimSpace(tag))
		if lower == "" || seen[lower] {
			continue
		}
		seen[lower] = true
		out = append(out, lower)
	}
	return out
}

var remoteTagRegex = regexp.MustCompile(`(?i)remote|worldwide|anywhere`)

func anyTagRemote(tags []string) bool {
	for _, tag := range tags {
		if remoteTagRegex.MatchString(tag) {
			return true
		}
	}
	return false
}

func defaultRegion(location string) string {
	if location != "" {
		return location
	}
	return "Worldwide"
}

// timestampLayouts are the formats seen across the source families: ISO
// timestamps, RSS pubDates and plain dates.
var timestampLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp converts an epoch number or date string into a time, or nil
// if absent or unparseable.
func parseTimestamp(v any) *time.Time {
	switch value := v.(type) {
	case float64:
		if value <= 0 {
			return nil
		}
		t := time.Unix(int64(value), 0).UTC()
		return &t
	case int64:
		if value <= 0 {
			return nil
		}
		t := time.Unix(value, 0).UTC()
		return &t
	case string:
		s := strings.TrimSpace(value)
		if s == "" {
			return nil
		}
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				t = t.UTC()
				return &t
			}
		}
		return nil
	default:
		return nil
	}
}
