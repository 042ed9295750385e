package source

import (
	"context"
	"encoding/json"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/nejcm/job-scanner/internal/model"
)

// siteProfile tunes the link heuristics for one crawled site.
type siteProfile struct {
	jobPathHints     []string
	blockedPathHints []string
	blockedTextHints []string
}

var defaultProfile = siteProfile{
	jobPathHints: []string{"job", "jobs", "career", "careers", "position", "opening", "openings"},
	blockedPathHints: []string{
		"about", "blog", "privacy", "terms", "login", "signin", "signup",
		"contact", "help", "support", "news", "article", "event",
		"company", "companies", "category", "tag",
	},
	blockedTextHints: []string{
		"learn more", "read more", "view all", "see all", "cookie", "privacy",
		"terms", "log in", "sign in", "sign up", "subscribe", "newsletter",
	},
}

var (
	htmlTagRegex   = regexp.MustCompile(`<[^>]+>`)
	anchorRegex    = regexp.MustCompile(`(?is)<a[^>]+href=["']([^"']+)["'][^>]*>(.*?)</a>`)
	jsonLDRegex    = regexp.MustCompile(`(?is)<script[^>]*type=["']application/ld\+json["'][^>]*>(.*?)</script>`)
	assetExtRegex  = regexp.MustCompile(`(?i)\.(png|jpg|jpeg|gif|svg|pdf|zip|css|js)$`)
	junkTitleRegex = regexp.MustCompile(`(?i)^(home|jobs|careers|menu|search|filters?)$`)
	atCompanyRegex = regexp.MustCompile(`(?i)\s+at\s+(.+)$`)
	locationRegex  = regexp.MustCompile(`(?i)\b(remote(?:\s*-\s*\w+)?|worldwide|europe|eu|apac|asia|us only|united states)\b`)
)

// stripTags converts markup to plain text: unescape entities, drop tags,
// collapse whitespace.
func stripTags(content string) string {
	unescaped := html.UnescapeString(content)
	plain := htmlTagRegex.ReplaceAllString(unescaped, " ")
	return strings.Join(strings.Fields(plain), " ")
}

// CustomHTMLAdapter crawls a single page of a site that permits crawling and
// extracts job links. It checks robots.txt before every fetch and backs off
// silently when disallowed.
type CustomHTMLAdapter struct {
	name    string
	baseURL string
	client  *http.Client
	robots  *robotsChecker
}

// NewCustomHTMLAdapter creates a crawler adapter for one page.
func NewCustomHTMLAdapter(name, baseURL string, client *http.Client) *CustomHTMLAdapter {
	return &CustomHTMLAdapter{
		name:    name,
		baseURL: baseURL,
		client:  client,
		robots:  newRobotsChecker(client),
	}
}

func (a *CustomHTMLAdapter) Name() string { return a.name }

// Fetch crawls the page and returns the job links found on it. A page the
// site's robots.txt disallows yields an empty result, not an error.
func (a *CustomHTMLAdapter) Fetch(ctx context.Context) ([]model.RawRecord, error) {
	if !a.robots.allowed(ctx, a.baseURL) {
		return nil, nil
	}
	body, err := getBody(ctx, a.client, a.baseURL, a.name)
	if err != nil {
		return nil, err
	}
	return parseJobLinks(string(body), a.baseURL), nil
}

// parseJobLinks extracts job postings from a page: JSON-LD JobPosting nodes
// first, then same-origin anchors whose path and text look like a job link.
func parseJobLinks(page, baseURL string) []model.RawRecord {
	var records []model.RawRecord
	seen := make(map[string]bool)

	for _, rec := range extractJSONLDJobs(page, baseURL) {
		link, _ := rec["link"].(string)
		if link == "" || seen[link] {
			continue
		}
		seen[link] = true
		records = append(records, rec)
	}

	for _, m := range anchorRegex.FindAllStringSubmatchIndex(page, -1) {
		href := resolveURL(strings.TrimSpace(page[m[2]:m[3]]), baseURL)
		if href == "" || seen[href] || !isLikelyJobURL(href, baseURL) {
			continue
		}

		anchorText := stripTags(page[m[4]:m[5]])
		if anchorText == "" || looksLikeJunkTitle(anchorText) {
			continue
		}

		// Look at the surrounding markup for a location hint.
		start := max(0, m[0]-240)
		end := min(len(page), m[1]+240)
		context := stripTags(page[start:end])

		seen[href] = true
		records = append(records, model.RawRecord{
			"title":       anchorText,
			"company":     extractCompany(anchorText),
			"location":    extractLocation(context),
			"description": "",
			"link":        href,
			"raw":         map[string]any{"href": href, "text": anchorText},
		})
	}

	return records
}

func extractJSONLDJobs(page, baseURL string) []model.RawRecord {
	var out []model.RawRecord

	for _, m := range jsonLDRegex.FindAllStringSubmatch(page, -1) {
		rawJSON := strings.TrimSpace(m[1])
		if rawJSON == "" {
			continue
		}
		var parsed any
		if err := json.Unmarshal([]byte(rawJSON), &parsed); err != nil {
			continue
		}

		var nodes []any
		switch v := parsed.(type) {
		case []any:
			nodes = v
		case map[string]any:
			if graph, ok := v["@graph"].([]any); ok {
				nodes = graph
			} else {
				nodes = []any{v}
			}
		}

		for _, node := range nodes {
			rec, ok := node.(map[string]any)
			if !ok {
				continue
			}
			nodeType, _ := rec["@type"].(string)
			if !strings.Contains(strings.ToLower(nodeType), "jobposting") {
				continue
			}

			title := stripTags(stringField(rec, "title"))
			link := resolveURL(strings.TrimSpace(stringField(rec, "url")), baseURL)
			if title == "" || link == "" {
				continue
			}

			company := ""
			if org, ok := rec["hiringOrganization"].(map[string]any); ok {
				company = stripTags(stringField(org, "name"))
			}

			location := jsonLDLocation(rec)
			postedAt := ""
			if posted := stringField(rec, "datePosted"); posted != "" {
				if t, err := parseLooseTime(posted); err == nil {
					postedAt = t.Format(time.RFC3339)
				}
			}

			out = append(out, model.RawRecord{
				"title":       title,
				"company":     company,
				"location":    location,
				"description": stripTags(stringField(rec, "description")),
				"link":        link,
				"postedAt":    postedAt,
				"raw":         rec,
			})
		}
	}

	return out
}

func jsonLDLocation(rec map[string]any) string {
	extract := func(node any) string {
		loc, ok := node.(map[string]any)
		if !ok {
			return ""
		}
		addr, ok := loc["address"].(map[string]any)
		if !ok {
			return ""
		}
		for _, key := range []string{"addressLocality", "addressRegion", "addressCountry"} {
			if v := stripTags(stringField(addr, key)); v != "" {
				return v
			}
		}
		return ""
	}

	switch node := rec["jobLocation"].(type) {
	case []any:
		if len(node) > 0 {
			if loc := extract(node[0]); loc != "" {
				return loc
			}
		}
	case map[string]any:
		if loc := extract(node); loc != "" {
			return loc
		}
	}

	if strings.EqualFold(stringField(rec, "jobLocationType"), "TELECOMMUTE") {
		return "Remote"
	}
	return ""
}

func stringField(rec map[string]any, key string) string {
	v, _ := rec[key].(string)
	return v
}

func resolveURL(href, base string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	resolved, err := baseURL.Parse(href)
	if err != nil {
		return ""
	}
	return resolved.String()
}

func isLikelyJobURL(rawURL, baseURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return false
	}

	if u.Scheme+"://"+u.Host != base.Scheme+"://"+base.Host {
		return false
	}
	if u.Fragment != "" {
		return false
	}
	if assetExtRegex.MatchString(u.Path) {
		return false
	}

	path := strings.ToLower(u.Path)
	if !containsAnyHint(path, defaultProfile.jobPathHints) {
		return false
	}
	if containsAnyHint(path, defaultProfile.blockedPathHints) {
		return false
	}

	segments := 0
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			segments++
		}
	}
	if segments < 2 && !strings.Contains(path, "job") {
		return false
	}
	return true
}

func looksLikeJunkTitle(text string) bool {
	if len(text) < 8 || len(text) > 140 {
		return true
	}
	lower := strings.ToLower(text)
	if !strings.ContainsAny(lower, "abcdefghijklmnopqrstuvwxyz") {
		return true
	}
	if containsAnyHint(lower, defaultProfile.blockedTextHints) {
		return true
	}
	return junkTitleRegex.MatchString(text)
}

func extractCompany(title string) string {
	m := atCompanyRegex.FindStringSubmatch(title)
	if m == nil {
		return ""
	}
	company := strings.Join(strings.Fields(m[1]), " ")
	if len(company) < 2 || len(company) > 80 {
		return ""
	}
	return company
}

func extractLocation(context string) string {
	if m := locationRegex.FindStringSubmatch(context); m != nil {
		return strings.Join(strings.Fields(m[1]), " ")
	}
	return ""
}

func containsAnyHint(s string, hints []string) bool {
	for _, hint := range hints {
		if strings.Contains(s, hint) {
			return true
		}
	}
	return false
}

// parseLooseTime tries the timestamp layouts the crawled sites actually use.
func parseLooseTime(value string) (time.Time, error) {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
