// Package filter partitions deduplicated records into kept and rejected,
// recording one reject reason per record. Rules run in a fixed order and the
// first failing rule wins; absent data passes a rule unless the rule is an
// explicit opt-out (posting age, missing salary).
package filter

import (
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/nejcm/job-scanner/internal/config"
	"github.com/nejcm/job-scanner/internal/model"
)

// Reason labels why a record was rejected.
type Reason string

const (
	ReasonExcludedCompany  Reason = "excluded_company"
	ReasonNotRemote        Reason = "not_remote"
	ReasonRegionNotAllowed Reason = "region_not_allowed"
	ReasonMissingKeyword   Reason = "missing_keyword"
	ReasonExcludedKeyword  Reason = "excluded_keyword"
	ReasonMissingTag       Reason = "missing_tag"
	ReasonSeniority        Reason = "seniority"
	ReasonEmploymentType   Reason = "employment_type"
	ReasonPostedTooOld     Reason = "posted_too_old"
	ReasonSalaryBelowMin   Reason = "salary_below_min"
	ReasonMissingSalary    Reason = "missing_salary"
)

// Result is the partition produced by Apply.
type Result struct {
	Kept    []model.Job
	Reasons map[string]Reason // record id -> first failing rule
}

// Apply evaluates every record against the configured rules. now anchors the
// posted-within-days cutoff.
func Apply(jobs []model.Job, cfg *config.Config, now time.Time) Result {
	result := Result{
		Kept:    make([]model.Job, 0, len(jobs)),
		Reasons: make(map[string]Reason),
	}

	excludedCompanies := lowerAll(cfg.ExcludedCompanies)
	allowedRegions := lowerAll(cfg.AllowedRegions)
	includeKw := lowerAll(cfg.KeywordsInclude)
	excludeKw := lowerAll(cfg.KeywordsExclude)
	requiredTags := lowerAll(cfg.RequiredTags)
	seniorityAllowed := mapset.NewSet(lowerAll(cfg.SeniorityAllowed)...)
	employmentAllowed := mapset.NewSet(lowerAll(cfg.EmploymentTypesAllowed)...)

	var cutoff time.Time
	if cfg.PostedWithinDays > 0 {
		cutoff = now.AddDate(0, 0, -cfg.PostedWithinDays)
	}

	for _, job := range jobs {
		if reason, rejected := evaluate(job, cfg, excludedCompanies, allowedRegions,
			includeKw, excludeKw, requiredTags, seniorityAllowed, employmentAllowed, cutoff); rejected {
			result.Reasons[job.ID] = reason
			continue
		}
		result.Kept = append(result.Kept, job)
	}

	return result
}

// evaluate runs the rules in their authoritative order and returns the first
// failure.
func evaluate(
	job model.Job,
	cfg *config.Config,
	excludedCompanies, allowedRegions, includeKw, excludeKw, requiredTags []string,
	seniorityAllowed, employmentAllowed mapset.Set[string],
	cutoff time.Time,
) (Reason, bool) {
	// 1. Excluded company, substring match in either direction.
	if len(excludedCompanies) > 0 && job.Company != "" {
		company := strings.ToLower(job.Company)
		for _, excluded := range excludedCompanies {
			if strings.Contains(company, excluded) || strings.Contains(excluded, company) {
				return ReasonExcludedCompany, true
			}
		}
	}

	// 2. Remote-only.
	if cfg.RemoteOnly && !job.IsRemote {
		return ReasonNotRemote, true
	}

	// 3. Allowed regions, substring match in either direction. A record
	// without a region passes.
	if len(allowedRegions) > 0 && job.RemoteRegion != "" {
		region := strings.ToLower(job.RemoteRegion)
		allowed := false
		for _, candidate := range allowedRegions {
			if strings.Contains(region, candidate) || strings.Contains(candidate, region) {
				allowed = true
				break
			}
		}
		if !allowed {
			return ReasonRegionNotAllowed, true
		}
	}

	text := strings.ToLower(job.Title + " " + job.DescriptionText)

	// 4. Include keywords.
	if len(includeKw) > 0 && !containsAny(text, includeKw) {
		return ReasonMissingKeyword, true
	}

	// 5. Exclude keywords.
	if len(excludeKw) > 0 && containsAny(text, excludeKw) {
		return ReasonExcludedKeyword, true
	}

	// 6. Required tags: a record with no tags at all is rejected too.
	if len(requiredTags) > 0 {
		if len(job.TechTags) == 0 {
			return ReasonMissingTag, true
		}
		jobTags := mapset.NewSet(lowerAll(job.TechTags)...)
		if !jobTags.ContainsAny(requiredTags...) {
			return ReasonMissingTag, true
		}
	}

	// 7. Seniority.
	if seniorityAllowed.Cardinality() > 0 && job.Seniority != "" &&
		!seniorityAllowed.Contains(strings.ToLower(job.Seniority)) {
		return ReasonSeniority, true
	}

	// 8. Employment type.
	if employmentAllowed.Cardinality() > 0 && job.EmploymentType != "" &&
		!employmentAllowed.Contains(strings.ToLower(job.EmploymentType)) {
		return ReasonEmploymentType, true
	}

	// 9. Posting age. Records without a posted date pass.
	if cfg.PostedWithinDays > 0 && job.PostedAt != nil && job.PostedAt.Before(cutoff) {
		return ReasonPostedTooOld, true
	}

	// 10. Minimum salary.
	if cfg.MinSalary != nil && *cfg.MinSalary > 0 {
		if job.HasSalary() {
			if job.EffectiveSalary() < *cfg.MinSalary {
				return ReasonSalaryBelowMin, true
			}
		} else if !cfg.AllowMissingSalary {
			return ReasonMissingSalary, true
		}
	}

	return "", false
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
