// Package report renders a pipeline result to disk (markdown and/or CSV
// under the output directory) and produces the run summary line.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/nejcm/job-scanner/internal/filter"
	"github.com/nejcm/job-scanner/internal/model"
	"github.com/nejcm/job-scanner/internal/pipeline"
)

// Writer renders results into dir, one date-stamped file per format.
type Writer struct {
	dir    string
	format string // "md", "csv" or "both"
}

// NewWriter creates a report writer for the given output directory.
func NewWriter(dir, format string) *Writer {
	return &Writer{dir: dir, format: format}
}

// Write renders the result and returns a human-readable summary of what was
// written and how the run went.
func (w *Writer) Write(result pipeline.Result, now time.Time) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}

	stamp := now.Format("2006-01-02")
	var lines []string

	if w.format == "md" || w.format == "both" {
		path := filepath.Join(w.dir, "jobs-"+stamp+".md")
		if err := os.WriteFile(path, []byte(renderMarkdown(result.Jobs, now)), 0o644); err != nil {
			return "", fmt.Errorf("writing markdown report: %w", err)
		}
		lines = append(lines, fmt.Sprintf("Written %d jobs to %s", len(result.Jobs), path))
	}

	if w.format == "csv" || w.format == "both" {
		path := filepath.Join(w.dir, "jobs-"+stamp+".csv")
		if err := writeCSV(path, result.Jobs); err != nil {
			return "", fmt.Errorf("writing csv report: %w", err)
		}
		lines = append(lines, fmt.Sprintf("Written %d jobs to %s", len(result.Jobs), path))
	}

	lines = append(lines, "", Summary(result.Counts, result.Reasons))
	return strings.Join(lines, "\n"), nil
}

// Summary formats the acquisition counters and the top reject reasons.
func Summary(counts pipeline.Counts, reasons map[string]filter.Reason) string {
	sources := make([]string, 0, len(counts.BySource))
	for source := range counts.BySource {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	parts := make([]string, 0, len(sources))
	for _, source := range sources {
		parts = append(parts, fmt.Sprintf("%s: %d", source, counts.BySource[source]))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Fetched %d total (%s).\n", counts.Fetched, strings.Join(parts, ", "))
	fmt.Fprintf(&b, "After dedupe: %d. After filter: %d.", counts.AfterDedupe, counts.AfterFilter)

	if top := topReasons(reasons, 5); len(top) > 0 {
		fmt.Fprintf(&b, "\nTop filter reasons: %s.", strings.Join(top, ", "))
	}
	return b.String()
}

// topReasons aggregates reject reasons and returns the n most frequent as
// "reason: count" strings.
func topReasons(reasons map[string]filter.Reason, n int) []string {
	byReason := make(map[filter.Reason]int)
	for _, reason := range reasons {
		byReason[reason]++
	}
	type entry struct {
		reason filter.Reason
		count  int
	}
	entries := make([]entry, 0, len(byReason))
	for reason, count := range byReason {
		entries = append(entries, entry{reason, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].reason < entries[j].reason
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = fmt.Sprintf("%s: %d", e.reason, e.count)
	}
	return out
}

func renderMarkdown(jobs []model.Job, now time.Time) string {
	var b strings.Builder
	b.WriteString("# Job Scanner Results\n\n")
	fmt.Fprintf(&b, "Generated: %s\n", now.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Total jobs: %d\n\n", len(jobs))

	for i, job := range jobs {
		title := job.Title
		if title == "" {
			title = "(untitled role)"
		}
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, title)

		tw := table.NewWriter()
		tw.AppendHeader(table.Row{"Property", "Value"})
		for _, row := range jobRows(job) {
			tw.AppendRow(table.Row{row[0], row[1]})
		}
		b.WriteString(tw.RenderMarkdown())
		b.WriteString("\n\n")
	}

	return b.String()
}

// jobRows lists every canonical field in its declaration order.
func jobRows(j model.Job) [][2]string {
	return [][2]string{
		{"id", j.ID},
		{"source", j.Source},
		{"sourceId", j.SourceID},
		{"title", j.Title},
		{"company", j.Company},
		{"companyDomain", orNull(j.CompanyDomain)},
		{"location", j.Location},
		{"isRemote", strconv.FormatBool(j.IsRemote)},
		{"remoteRegion", orNull(j.RemoteRegion)},
		{"employmentType", orNull(j.EmploymentType)},
		{"seniority", orNull(j.Seniority)},
		{"salaryMin", formatNumber(j.SalaryMin)},
		{"salaryMax", formatNumber(j.SalaryMax)},
		{"salaryCurrency", orNull(j.SalaryCurrency)},
		{"salaryPeriod", orNull(j.SalaryPeriod)},
		{"techTags", strings.Join(j.TechTags, ", ")},
		{"descriptionText", j.DescriptionText},
		{"applyUrl", j.ApplyURL},
		{"postedAt", formatTime(j.PostedAt)},
		{"scrapedAt", j.ScrapedAt.UTC().Format(time.RFC3339)},
		{"score", formatNumber(j.Score)},
		{"raw", rawJSON(j.Raw)},
	}
}

func writeCSV(path string, jobs []model.Job) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	header := []string{"id", "source", "sourceId", "title", "company", "location", "isRemote", "applyUrl", "postedAt", "score"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, j := range jobs {
		row := []string{
			j.ID, j.Source, j.SourceID, j.Title, j.Company, j.Location,
			strconv.FormatBool(j.IsRemote), j.ApplyURL,
			formatTime(j.PostedAt), formatNumber(j.Score),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func orNull(s string) string {
	if s == "" {
		return "null"
	}
	return s
}

func formatNumber(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func rawJSON(raw any) string {
	if raw == nil {
		return "null"
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Sprintf("%v", raw)
	}
	return string(data)
}
