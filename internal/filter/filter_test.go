package filter

import (
	"testing"
	"time"

	"github.com/nejcm/job-scanner/internal/config"
	"github.com/nejcm/job-scanner/internal/model"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func baseConfig() *config.Config {
	cfg := config.Default()
	// Neutralize rules individually enabled per test.
	cfg.RemoteOnly = false
	cfg.AllowedRegions = nil
	cfg.SeniorityAllowed = nil
	cfg.PostedWithinDays = 0
	return cfg
}

func remoteJob(id string) model.Job {
	return model.Job{
		ID:       id,
		Title:    "Backend Engineer",
		Company:  "Acme",
		IsRemote: true,
	}
}

func floatPtr(v float64) *float64 { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func TestRejectReasons(t *testing.T) {
	old := now.AddDate(0, 0, -30)
	recent := now.AddDate(0, 0, -3)

	tests := []struct {
		name   string
		mutate func(*config.Config, *model.Job)
		want   Reason
	}{
		{
			"excluded company",
			func(cfg *config.Config, j *model.Job) {
				cfg.ExcludedCompanies = []string{"acme"}
			},
			ReasonExcludedCompany,
		},
		{
			"excluded company substring both directions",
			func(cfg *config.Config, j *model.Job) {
				cfg.ExcludedCompanies = []string{"Acme Corporation Worldwide"}
				j.Company = "Acme Corporation"
			},
			ReasonExcludedCompany,
		},
		{
			"not remote",
			func(cfg *config.Config, j *model.Job) {
				cfg.RemoteOnly = true
				j.IsRemote = false
			},
			ReasonNotRemote,
		},
		{
			"region not allowed",
			func(cfg *config.Config, j *model.Job) {
				cfg.AllowedRegions = []string{"EU", "Worldwide"}
				j.RemoteRegion = "US only"
			},
			ReasonRegionNotAllowed,
		},
		{
			"missing keyword",
			func(cfg *config.Config, j *model.Job) {
				cfg.KeywordsInclude = []string{"kubernetes"}
				j.DescriptionText = "plain CRUD work"
			},
			ReasonMissingKeyword,
		},
		{
			"excluded keyword",
			func(cfg *config.Config, j *model.Job) {
				cfg.KeywordsExclude = []string{"gambling"}
				j.DescriptionText = "online gambling platform"
			},
			ReasonExcludedKeyword,
		},
		{
			"missing tag",
			func(cfg *config.Config, j *model.Job) {
				cfg.RequiredTags = []string{"go"}
				j.TechTags = []string{"php", "laravel"}
			},
			ReasonMissingTag,
		},
		{
			"no tags at all",
			func(cfg *config.Config, j *model.Job) {
				cfg.RequiredTags = []string{"go"}
				j.TechTags = nil
			},
			ReasonMissingTag,
		},
		{
			"seniority",
			func(cfg *config.Config, j *model.Job) {
				cfg.SeniorityAllowed = []string{"Senior", "Staff"}
				j.Seniority = "Junior"
			},
			ReasonSeniority,
		},
		{
			"employment type",
			func(cfg *config.Config, j *model.Job) {
				cfg.EmploymentTypesAllowed = []string{"full-time"}
				j.EmploymentType = "contract"
			},
			ReasonEmploymentType,
		},
		{
			"posted too old",
			func(cfg *config.Config, j *model.Job) {
				cfg.PostedWithinDays = 21
				j.PostedAt = timePtr(old)
			},
			ReasonPostedTooOld,
		},
		{
			"salary below min",
			func(cfg *config.Config, j *model.Job) {
				cfg.MinSalary = floatPtr(80000)
				j.SalaryMax = floatPtr(60000)
			},
			ReasonSalaryBelowMin,
		},
		{
			"missing salary strict",
			func(cfg *config.Config, j *model.Job) {
				cfg.MinSalary = floatPtr(80000)
				cfg.AllowMissingSalary = false
			},
			ReasonMissingSalary,
		},
		{
			"recent posting passes the age rule",
			func(cfg *config.Config, j *model.Job) {
				cfg.PostedWithinDays = 21
				j.PostedAt = timePtr(recent)
			},
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			job := remoteJob("j1")
			tt.mutate(cfg, &job)

			result := Apply([]model.Job{job}, cfg, now)
			got := result.Reasons["j1"]
			if got != tt.want {
				t.Errorf("reason = %q, want %q", got, tt.want)
			}
			if tt.want == "" && len(result.Kept) != 1 {
				t.Errorf("expected the record kept, got %d", len(result.Kept))
			}
			if tt.want != "" && len(result.Kept) != 0 {
				t.Errorf("expected the record rejected")
			}
		})
	}
}

func TestFirstFailingRuleWins(t *testing.T) {
	cfg := baseConfig()
	cfg.ExcludedCompanies = []string{"acme"}
	cfg.RemoteOnly = true
	cfg.KeywordsInclude = []string{"kubernetes"}

	job := remoteJob("j1")
	job.IsRemote = false // fails rule 2 and rule 4 as well

	result := Apply([]model.Job{job}, cfg, now)
	if got := result.Reasons["j1"]; got != ReasonExcludedCompany {
		t.Errorf("reason = %q, want the earliest rule %q", got, ReasonExcludedCompany)
	}
}

func TestAbsentDataPasses(t *testing.T) {
	cfg := baseConfig()
	cfg.AllowedRegions = []string{"EU"}
	cfg.SeniorityAllowed = []string{"Senior"}
	cfg.EmploymentTypesAllowed = []string{"full-time"}
	cfg.PostedWithinDays = 21

	// No region, no seniority, no employment type, no posted date.
	job := remoteJob("j1")

	result := Apply([]model.Job{job}, cfg, now)
	if len(result.Kept) != 1 {
		t.Fatalf("record with absent optional data must pass, got reason %q", result.Reasons["j1"])
	}
}

func TestMissingSalaryPermissive(t *testing.T) {
	cfg := baseConfig()
	cfg.MinSalary = floatPtr(80000)
	cfg.AllowMissingSalary = true

	job := remoteJob("j1") // no salary bounds

	result := Apply([]model.Job{job}, cfg, now)
	if len(result.Kept) != 1 {
		t.Fatalf("missing salary must pass when allowed, got reason %q", result.Reasons["j1"])
	}
	if _, ok := result.Reasons["j1"]; ok {
		t.Error("kept record must have no reason recorded")
	}
}

func TestSalaryUsesEffectiveValue(t *testing.T) {
	cfg := baseConfig()
	cfg.MinSalary = floatPtr(80000)

	// Max above min: kept even though the lower bound is below.
	job := remoteJob("j1")
	job.SalaryMin = floatPtr(60000)
	job.SalaryMax = floatPtr(100000)

	result := Apply([]model.Job{job}, cfg, now)
	if len(result.Kept) != 1 {
		t.Errorf("salary max above min must pass, got reason %q", result.Reasons["j1"])
	}

	// Only a lower bound present: compared directly.
	job2 := remoteJob("j2")
	job2.SalaryMin = floatPtr(70000)

	result = Apply([]model.Job{job2}, cfg, now)
	if got := result.Reasons["j2"]; got != ReasonSalaryBelowMin {
		t.Errorf("reason = %q, want %q", got, ReasonSalaryBelowMin)
	}
}

func TestRegionMatchesSubstring(t *testing.T) {
	cfg := baseConfig()
	cfg.AllowedRegions = []string{"EU"}

	job := remoteJob("j1")
	job.RemoteRegion = "Remote - EU timezones"

	result := Apply([]model.Job{job}, cfg, now)
	if len(result.Kept) != 1 {
		t.Errorf("substring region match must pass, got reason %q", result.Reasons["j1"])
	}
}

func TestKeywordsMatchTitleAndDescription(t *testing.T) {
	cfg := baseConfig()
	cfg.KeywordsInclude = []string{"golang"}

	inTitle := remoteJob("t")
	inTitle.Title = "Golang Developer"
	inDesc := remoteJob("d")
	inDesc.DescriptionText = "We use golang in production"
	inNeither := remoteJob("n")

	result := Apply([]model.Job{inTitle, inDesc, inNeither}, cfg, now)
	if len(result.Kept) != 2 {
		t.Errorf("kept = %d, want 2", len(result.Kept))
	}
	if got := result.Reasons["n"]; got != ReasonMissingKeyword {
		t.Errorf("reason = %q, want %q", got, ReasonMissingKeyword)
	}
}

func TestReasonPerRecordIsExclusive(t *testing.T) {
	cfg := baseConfig()
	cfg.RemoteOnly = true

	jobs := []model.Job{remoteJob("a"), {ID: "b", Title: "X", Company: "Y"}}
	result := Apply(jobs, cfg, now)

	if len(result.Kept) != 1 || len(result.Reasons) != 1 {
		t.Fatalf("kept=%d reasons=%d", len(result.Kept), len(result.Reasons))
	}
	if result.Reasons["b"] != ReasonNotRemote {
		t.Errorf("reason = %q", result.Reasons["b"])
	}
}
