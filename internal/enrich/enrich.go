// Package enrich fills in attributes a source omitted: seniority from the
// title, remote status from the record text, and technology tags from a
// fixed vocabulary. Enrichment only adds, it never overwrites what a source
// provided and never downgrades a remote flag.
package enrich

import (
	"regexp"
	"strings"

	"github.com/nejcm/job-scanner/internal/model"
)

var seniorityRegex = regexp.MustCompile(`(?i)\b(intern|junior|mid|senior|staff|lead|principal)\b`)

var seniorityLabels = map[string]string{
	"intern":    "Intern",
	"junior":    "Junior",
	"mid":       "Mid",
	"senior":    "Senior",
	"staff":     "Staff",
	"lead":      "Lead",
	"principal": "Principal",
}

var remoteRegex = regexp.MustCompile(`(?i)remote|worldwide|anywhere|distributed|work[ -]from[ -]home|\bwfh\b`)

// techVocabulary is the fixed tag vocabulary matched against title and
// description when a record arrives without tags.
var techVocabulary = []string{
	"react", "next.js", "node", "node.js", "typescript", "javascript",
	"python", "go", "rust", "java", "fullstack", "frontend", "backend",
	"devops", "aws", "graphql", "postgres", "mongodb",
}

// Apply returns a copy of job with inferred attributes filled in.
func Apply(job model.Job) model.Job {
	out := job

	if out.Seniority == "" {
		out.Seniority = inferSeniority(out.Title)
	}

	isRemote, region := inferRemote(out)
	out.IsRemote = isRemote
	out.RemoteRegion = region

	if len(out.TechTags) == 0 {
		out.TechTags = extractTechTags(out.Title, out.DescriptionText)
	}

	return out
}

// inferSeniority returns the label for the first seniority keyword found as
// a whole word in the title, or empty when none matches.
func inferSeniority(title string) string {
	m := seniorityRegex.FindString(title)
	if m == "" {
		return ""
	}
	return seniorityLabels[strings.ToLower(m)]
}

// inferRemote upgrades the remote flag when the record text carries a remote
// indicator. It never infers on-site.
func inferRemote(job model.Job) (bool, string) {
	text := job.Title + " " + job.Location + " " + job.DescriptionText
	if remoteRegex.MatchString(text) {
		region := job.RemoteRegion
		if region == "" {
			region = "Worldwide"
		}
		return true, region
	}
	return job.IsRemote, job.RemoteRegion
}

// extractTechTags collects every vocabulary term found in title+description,
// duplicate-free, in vocabulary order.
func extractTechTags(title, description string) []string {
	combined := strings.ToLower(title + " " + description)
	var found []string
	for _, tag := range techVocabulary {
		if strings.Contains(combined, tag) {
			found = append(found, tag)
		}
	}
	return found
}
