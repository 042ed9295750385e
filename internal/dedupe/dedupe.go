// Package dedupe collapses records describing the same posting, within and
// across sources. Two phases: exact key collapse, then a fuzzy pass over the
// survivors. First occurrence always wins.
package dedupe

import (
	"strings"

	"github.com/nejcm/job-scanner/internal/model"
)

// threshold is the similarity both title AND company must reach for the
// fuzzy phase to drop a candidate. Load-bearing: changing it changes which
// records survive.
const threshold = 0.85

// Collapse removes duplicates from jobs, preserving input order.
func Collapse(jobs []model.Job) []model.Job {
	// Phase 1: exact key.
	seen := make(map[string]bool, len(jobs))
	unique := make([]model.Job, 0, len(jobs))
	for _, job := range jobs {
		key := exactKey(job)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, job)
	}

	// Phase 2: fuzzy pass over the phase-1 survivors. Quadratic, acceptable
	// at the expected batch sizes.
	out := make([]model.Job, 0, len(unique))
	for _, job := range unique {
		duplicate := false
		for _, accepted := range out {
			if similarity(job.Title, accepted.Title) >= threshold &&
				similarity(job.Company, accepted.Company) >= threshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			out = append(out, job)
		}
	}
	return out
}

// exactKey is the lowercase-trimmed apply URL when present, else a composite
// of company, title and location.
func exactKey(job model.Job) string {
	if u := strings.ToLower(strings.TrimSpace(job.ApplyURL)); u != "" {
		return "url:" + u
	}
	parts := []string{job.Company, job.Title, job.Location}
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return "key:" + strings.Join(parts, "|")
}

// similarity is a cheap character-containment estimate, not an edit
// distance: an empty side scores 0 (even against another empty), identical
// strings after lowercase-trim score 1, otherwise each character of the
// shorter string that occurs anywhere in the longer counts as a match and
// the score is 2·matches/(len(longer)+len(shorter)), lengths in characters.
// A repeated character in the shorter string is counted on every
// occurrence. Substituting a real string metric here changes which records
// merge; do not swap it without revisiting the threshold.
func similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	sa := strings.ToLower(strings.TrimSpace(a))
	sb := strings.ToLower(strings.TrimSpace(b))
	if sa == sb {
		return 1
	}

	longer, shorter := []rune(sa), []rune(sb)
	if len(longer) < len(shorter) {
		longer, shorter = shorter, longer
	}

	matches := 0
	haystack := string(longer)
	for _, r := range shorter {
		if strings.ContainsRune(haystack, r) {
			matches++
		}
	}
	return float64(2*matches) / float64(len(longer)+len(shorter))
}
