// Package rank scores kept records with the configured weights and orders
// the final set.
package rank

import (
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/nejcm/job-scanner/internal/config"
	"github.com/nejcm/job-scanner/internal/model"
)

// Score computes an additive relevance score per record and returns new
// record values with the score set. Each term contributes its weight when
// the signal matches and 0 when the signal is absent; missing data is never
// penalized except through the exclude-penalty path.
func Score(jobs []model.Job, cfg *config.Config) []model.Job {
	includeKw := lowerAll(cfg.KeywordsInclude)
	excludeKw := lowerAll(cfg.KeywordsExclude)
	requiredTags := lowerAll(cfg.RequiredTags)
	senioritySet := mapset.NewSet(lowerAll(cfg.SeniorityAllowed)...)
	w := cfg.Weights

	out := make([]model.Job, len(jobs))
	for i, job := range jobs {
		score := 0.0
		text := strings.ToLower(job.Title + " " + job.DescriptionText)

		if len(includeKw) > 0 && containsAny(text, includeKw) {
			score += w.KeywordMatch
		}
		if containsAny(text, excludeKw) {
			score += w.ExcludePenalty
		}
		if len(job.TechTags) > 0 && len(requiredTags) > 0 {
			jobTags := mapset.NewSet(lowerAll(job.TechTags)...)
			if jobTags.ContainsAny(requiredTags...) {
				score += w.TagMatch
			}
		}
		if job.Seniority != "" && senioritySet.Contains(strings.ToLower(job.Seniority)) {
			score += w.SeniorityMatch
		}
		if cfg.MinSalary != nil && job.HasSalary() && job.EffectiveSalary() >= *cfg.MinSalary {
			score += w.SalaryMatch
		}

		scored := job
		s := score
		scored.Score = &s
		out[i] = scored
	}
	return out
}

// Sort orders jobs by the configured key and direction. The sort is stable:
// ties preserve relative input order, so identical inputs reproduce
// identical output. Absent values compare as 0.
func Sort(jobs []model.Job, cfg *config.Config) []model.Job {
	out := make([]model.Job, len(jobs))
	copy(out, jobs)

	key := sortKey(cfg.SortBy)
	asc := cfg.SortOrder == "asc"

	sort.SliceStable(out, func(i, j int) bool {
		a, b := key(out[i]), key(out[j])
		if asc {
			return a < b
		}
		return a > b
	})
	return out
}

func sortKey(name string) func(model.Job) float64 {
	switch name {
	case "postedAt":
		return func(j model.Job) float64 {
			if j.PostedAt == nil {
				return 0
			}
			return float64(j.PostedAt.UnixMilli())
		}
	case "salaryMax":
		return func(j model.Job) float64 {
			if j.SalaryMax == nil {
				return 0
			}
			return *j.SalaryMax
		}
	default: // "score"
		return func(j model.Job) float64 {
			if j.Score == nil {
				return 0
			}
			return *j.Score
		}
	}
}

func containsAny(text string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}
