// Package pipeline composes the record stages: normalize, enrich, dedupe,
// filter, score, sort. Every stage is a pure, synchronous transformation
// over an already-materialized record set; only the fetch layer does I/O.
package pipeline

import (
	"time"

	"github.com/nejcm/job-scanner/internal/config"
	"github.com/nejcm/job-scanner/internal/dedupe"
	"github.com/nejcm/job-scanner/internal/enrich"
	"github.com/nejcm/job-scanner/internal/fetch"
	"github.com/nejcm/job-scanner/internal/filter"
	"github.com/nejcm/job-scanner/internal/model"
	"github.com/nejcm/job-scanner/internal/normalize"
	"github.com/nejcm/job-scanner/internal/rank"
)

// Counts are the acquisition counters the report surfaces.
type Counts struct {
	Fetched     int
	BySource    map[string]int
	AfterDedupe int
	AfterFilter int
}

// Result is the ordered survivor set plus the reject bookkeeping.
type Result struct {
	Jobs     []model.Job
	Rejected []model.Job // records a rule turned away, in dedupe order
	Reasons  map[string]filter.Reason
	Counts   Counts
}

// Run executes the full decision pipeline over the fetched batches.
// scrapedAt is stamped onto every record so one run shares one scrape time.
func Run(batches []fetch.SourceBatch, cfg *config.Config, scrapedAt time.Time) Result {
	counts := Counts{BySource: make(map[string]int, len(batches))}

	var jobs []model.Job
	for _, batch := range batches {
		mapper := normalize.ForSource(batch.Source)
		for _, raw := range batch.Records {
			jobs = append(jobs, mapper.Map(raw, batch.Source, scrapedAt))
		}
		counts.Fetched += len(batch.Records)
		counts.BySource[batch.Source] += len(batch.Records)
	}

	for i, job := range jobs {
		jobs[i] = enrich.Apply(job)
	}

	jobs = dedupe.Collapse(jobs)
	counts.AfterDedupe = len(jobs)

	filtered := filter.Apply(jobs, cfg, time.Now())
	scored := rank.Score(filtered.Kept, cfg)
	ordered := rank.Sort(scored, cfg)
	counts.AfterFilter = len(ordered)

	var rejected []model.Job
	for _, job := range jobs {
		if _, ok := filtered.Reasons[job.ID]; ok {
			rejected = append(rejected, job)
		}
	}

	return Result{Jobs: ordered, Rejected: rejected, Reasons: filtered.Reasons, Counts: counts}
}
