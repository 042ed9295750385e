package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nejcm/job-scanner/internal/filter"
	"github.com/nejcm/job-scanner/internal/model"
	"github.com/nejcm/job-scanner/internal/pipeline"
)

var reportTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func sampleResult() pipeline.Result {
	score := 3.0
	posted := time.Date(2025, 5, 20, 8, 0, 0, 0, time.UTC)
	return pipeline.Result{
		Jobs: []model.Job{{
			ID:        "rec-1",
			Source:    "remoteok",
			SourceID:  "101",
			Title:     "Senior Go Engineer",
			Company:   "Acme",
			IsRemote:  true,
			TechTags:  []string{"go", "aws"},
			ApplyURL:  "https://remoteok.com/jobs/101",
			PostedAt:  &posted,
			ScrapedAt: reportTime,
			Score:     &score,
		}},
		Reasons: map[string]filter.Reason{
			"rec-2": filter.ReasonNotRemote,
			"rec-3": filter.ReasonNotRemote,
			"rec-4": filter.ReasonMissingKeyword,
		},
		Counts: pipeline.Counts{
			Fetched:     4,
			BySource:    map[string]int{"remoteok": 3, "rss": 1},
			AfterDedupe: 4,
			AfterFilter: 1,
		},
	}
}

func TestWriteBothFormats(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "both")

	summary, err := w.Write(sampleResult(), reportTime)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	md, err := os.ReadFile(filepath.Join(dir, "jobs-2025-06-01.md"))
	if err != nil {
		t.Fatalf("markdown report missing: %v", err)
	}
	for _, want := range []string{"# Job Scanner Results", "Senior Go Engineer", "applyUrl", "go, aws"} {
		if !strings.Contains(string(md), want) {
			t.Errorf("markdown missing %q", want)
		}
	}

	csvData, err := os.ReadFile(filepath.Join(dir, "jobs-2025-06-01.csv"))
	if err != nil {
		t.Fatalf("csv report missing: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(csvData)), "\n")
	if len(lines) != 2 {
		t.Fatalf("csv lines = %d, want header + 1 row", len(lines))
	}
	if !strings.HasPrefix(lines[0], "id,source,sourceId") {
		t.Errorf("csv header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "Senior Go Engineer") {
		t.Errorf("csv row = %q", lines[1])
	}

	if !strings.Contains(summary, "Fetched 4 total") {
		t.Errorf("summary missing totals: %q", summary)
	}
}

func TestWriteSingleFormat(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "csv")

	if _, err := w.Write(sampleResult(), reportTime); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "jobs-2025-06-01.csv")); err != nil {
		t.Error("csv report missing")
	}
	if _, err := os.Stat(filepath.Join(dir, "jobs-2025-06-01.md")); !os.IsNotExist(err) {
		t.Error("markdown report should not be written for format csv")
	}
}

func TestSummary(t *testing.T) {
	result := sampleResult()

	got := Summary(result.Counts, result.Reasons)

	if !strings.Contains(got, "Fetched 4 total (remoteok: 3, rss: 1).") {
		t.Errorf("summary = %q", got)
	}
	if !strings.Contains(got, "After dedupe: 4. After filter: 1.") {
		t.Errorf("summary = %q", got)
	}
	// Reasons ordered by count, ties by name.
	if !strings.Contains(got, "Top filter reasons: not_remote: 2, missing_keyword: 1.") {
		t.Errorf("summary = %q", got)
	}
}

func TestSummaryWithoutRejections(t *testing.T) {
	counts := pipeline.Counts{Fetched: 1, BySource: map[string]int{"rss": 1}, AfterDedupe: 1, AfterFilter: 1}

	got := Summary(counts, nil)
	if strings.Contains(got, "Top filter reasons") {
		t.Errorf("no-rejection summary should omit reasons: %q", got)
	}
}

func TestTopReasonsOrdering(t *testing.T) {
	reasons := map[string]filter.Reason{
		"a": filter.ReasonNotRemote,
		"b": filter.ReasonNotRemote,
		"c": filter.ReasonSeniority,
		"d": filter.ReasonMissingKeyword,
		"e": filter.ReasonMissingKeyword,
		"f": filter.ReasonMissingKeyword,
	}

	got := topReasons(reasons, 2)
	if len(got) != 2 {
		t.Fatalf("top = %v", got)
	}
	if got[0] != "missing_keyword: 3" || got[1] != "not_remote: 2" {
		t.Errorf("top = %v", got)
	}
}
