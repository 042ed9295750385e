package model

import (
	"context"
	"time"
)

// RawRecord is a source's own record shape, decoded but not yet normalized.
// The concrete keys vary per source; the normalizer maps them into Job.
type RawRecord = map[string]any

// Job is the canonical record every source maps into. Pipeline stages never
// mutate a Job in place; each stage returns new values.
type Job struct {
	ID              string     // unique within a run, regenerated each run
	Source          string     // source name this record came from
	SourceID        string     // source's own identifier, or apply URL, or generated
	Title           string     // trimmed, may be empty
	Company         string     // trimmed, may be empty
	CompanyDomain   string     // reserved, currently always empty
	Location        string     // trimmed, may be empty
	IsRemote        bool       // defaults true unless the source signals on-site
	RemoteRegion    string     // region label, "Worldwide" when remote and unspecified
	EmploymentType  string     // free-text classification, empty if unknown
	Seniority       string     // possibly inferred from the title, empty if unknown
	SalaryMin       *float64   // nil when the source carries no lower bound
	SalaryMax       *float64   // nil when the source carries no upper bound
	SalaryCurrency  string     // empty if unknown
	SalaryPeriod    string     // empty if unknown
	TechTags        []string   // lowercase technology keywords, duplicate-free
	DescriptionText string     // plain text, markup stripped
	ApplyURL        string     // canonical apply link, may be empty
	PostedAt        *time.Time // nil if unknown
	ScrapedAt       time.Time  // one value per run, fixed at pipeline start
	Raw             any        // original payload, diagnostics only
	Score           *float64   // set by the scorer, nil before it
}

// HasSalary reports whether the record carries any salary bound.
func (j Job) HasSalary() bool {
	return j.SalaryMin != nil || j.SalaryMax != nil
}

// EffectiveSalary is the value salary rules compare against: the upper bound
// if present, else the lower bound, else 0.
func (j Job) EffectiveSalary() float64 {
	if j.SalaryMax != nil {
		return *j.SalaryMax
	}
	if j.SalaryMin != nil {
		return *j.SalaryMin
	}
	return 0
}

// SourceAdapter produces raw records for one named source. Fetch may fail or
// time out; rate limiting and crawl compliance live inside the adapter.
type SourceAdapter interface {
	Name() string
	Fetch(ctx context.Context) ([]RawRecord, error)
}

// CacheStore holds the last successful raw payload per source. Implementations
// must never let I/O failures escape: a failed read reports absent, a failed
// write returns an error the caller is free to ignore.
type CacheStore interface {
	Get(source string) (payload []RawRecord, capturedAt time.Time, ok bool)
	Put(source string, payload []RawRecord) error
}
