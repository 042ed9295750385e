package source

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// robotsChecker answers whether a URL may be crawled, based on the origin's
// robots.txt. The check is deliberately conservative: a blanket
// "Disallow: /" for User-agent: * blocks everything unless an explicit
// Allow covers the path.
type robotsChecker struct {
	client *http.Client

	mu    sync.Mutex
	rules map[string]robotsEntry // keyed by origin
	ttl   time.Duration
}

type robotsEntry struct {
	rules     string
	fetchedAt time.Time
}

func newRobotsChecker(client *http.Client) *robotsChecker {
	return &robotsChecker{
		client: client,
		rules:  make(map[string]robotsEntry),
		ttl:    1 * time.Hour,
	}
}

// allowed reports whether rawURL may be fetched. An unreachable robots.txt
// counts as permissive (empty rule set).
func (r *robotsChecker) allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	origin := u.Scheme + "://" + u.Host
	rules := r.fetchRules(ctx, origin)
	return !isDisallowed(rules, u.Path)
}

func (r *robotsChecker) fetchRules(ctx context.Context, origin string) string {
	r.mu.Lock()
	cached, ok := r.rules[origin]
	r.mu.Unlock()
	if ok && time.Since(cached.fetchedAt) < r.ttl {
		return cached.rules
	}

	rules := ""
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err == nil {
		req.Header.Set("User-Agent", userAgent)
		if resp, err := r.client.Do(req); err == nil {
			if resp.StatusCode == http.StatusOK {
				if body, err := io.ReadAll(resp.Body); err == nil {
					rules = string(body)
				}
			}
			resp.Body.Close()
		}
	}

	r.mu.Lock()
	r.rules[origin] = robotsEntry{rules: rules, fetchedAt: time.Now()}
	r.mu.Unlock()
	return rules
}

// isDisallowed applies the User-agent: * groups of a robots.txt to path.
func isDisallowed(rules, path string) bool {
	if path == "" {
		path = "/"
	}
	currentAgent := ""
	disallowAll := false
	for _, line := range strings.Split(rules, "\n") {
		trimmed := strings.ToLower(strings.TrimSpace(line))
		switch {
		case strings.HasPrefix(trimmed, "user-agent:"):
			currentAgent = strings.TrimSpace(trimmed[len("user-agent:"):])
		case strings.HasPrefix(trimmed, "disallow:") && currentAgent == "*":
			value := strings.TrimSpace(strings.TrimSpace(line)[len("disallow:"):])
			// An empty Disallow value blocks nothing.
			if value == "/" {
				disallowAll = true
			} else if value != "" && strings.HasPrefix(path, value) {
				return true
			}
		case strings.HasPrefix(trimmed, "allow:") && currentAgent == "*":
			value := strings.TrimSpace(strings.TrimSpace(line)[len("allow:"):])
			if value != "" && strings.HasPrefix(path, value) {
				return false
			}
		}
	}
	return disallowAll
}
