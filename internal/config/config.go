package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for one scanner run. The pipeline treats
// it as an immutable value for the duration of the run.
type Config struct {
	KeywordsInclude        []string
	KeywordsExclude        []string
	RequiredTags           []string
	ExcludedCompanies      []string
	RemoteOnly             bool
	AllowedRegions         []string
	MinSalary              *float64
	AllowMissingSalary     bool
	SeniorityAllowed       []string
	EmploymentTypesAllowed []string
	PostedWithinDays       int
	Weights                Weights
	SortBy                 string // "score", "postedAt" or "salaryMax"
	SortOrder              string // "asc" or "desc"
	Sources                Sources
	CacheDir               string
	CacheTTL               time.Duration
	OutputDir              string
	Format                 string // "md", "csv" or "both"
}

// Weights are the additive scoring weights.
type Weights struct {
	KeywordMatch   float64 `yaml:"keyword_match"`
	TagMatch       float64 `yaml:"tag_match"`
	SeniorityMatch float64 `yaml:"seniority_match"`
	SalaryMatch    float64 `yaml:"salary_match"`
	ExcludePenalty float64 `yaml:"exclude_penalty"`
}

// Sources toggles the built-in adapters and lists extra feeds/pages.
type Sources struct {
	RemoteOK       bool           `yaml:"remoteok"`
	WeWorkRemotely bool           `yaml:"weworkremotely"`
	WorkingNomads  bool           `yaml:"workingnomads"`
	RSSFeeds       []string       `yaml:"rss_feeds"`
	CustomHTML     []CustomSource `yaml:"custom_html"`
}

// CustomSource is a single HTML page to crawl for job links.
type CustomSource struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

// rawConfig is used for YAML unmarshaling (snake_case keys, pointer fields so
// absent keys fall back to defaults instead of zero values).
type rawConfig struct {
	KeywordsInclude        []string   `yaml:"keywords_include"`
	KeywordsExclude        []string   `yaml:"keywords_exclude"`
	RequiredTags           []string   `yaml:"required_tags"`
	ExcludedCompanies      []string   `yaml:"excluded_companies"`
	RemoteOnly             *bool      `yaml:"remote_only"`
	AllowedRegions         []string   `yaml:"allowed_regions"`
	MinSalary              *float64   `yaml:"min_salary"`
	AllowMissingSalary     *bool      `yaml:"allow_missing_salary"`
	SeniorityAllowed       []string   `yaml:"seniority_allowed"`
	EmploymentTypesAllowed []string   `yaml:"employment_types_allowed"`
	PostedWithinDays       *int       `yaml:"posted_within_days"`
	Weights                *rawWeights `yaml:"scoring_weights"`
	SortBy                 string     `yaml:"sort_by"`
	SortOrder              string     `yaml:"sort_order"`
	Sources                *Sources   `yaml:"sources"`
	CacheDir               string     `yaml:"cache_dir"`
	CacheTTL               string     `yaml:"cache_ttl"`
	OutputDir              string     `yaml:"output_dir"`
	Format                 string     `yaml:"format"`
}

type rawWeights struct {
	KeywordMatch   *float64 `yaml:"keyword_match"`
	TagMatch       *float64 `yaml:"tag_match"`
	SeniorityMatch *float64 `yaml:"seniority_match"`
	SalaryMatch    *float64 `yaml:"salary_match"`
	ExcludePenalty *float64 `yaml:"exclude_penalty"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		RemoteOnly:         true,
		AllowedRegions:     []string{"Worldwide", "EU", "APAC", "Asia"},
		AllowMissingSalary: true,
		SeniorityAllowed:   []string{"Senior", "Staff", "Lead"},
		PostedWithinDays:   21,
		Weights: Weights{
			KeywordMatch:   1,
			TagMatch:       2,
			SeniorityMatch: 1,
			SalaryMatch:    1,
			ExcludePenalty: -10,
		},
		SortBy:    "score",
		SortOrder: "desc",
		Sources: Sources{
			RemoteOK:       true,
			WeWorkRemotely: true,
			WorkingNomads:  true,
		},
		CacheDir:  ".cache",
		CacheTTL:  1 * time.Hour,
		OutputDir: "out",
		Format:    "both",
	}
}

// Load reads and parses the YAML config file at path, overlays it onto the
// defaults, validates, and returns the result. A missing file is not an
// error: the defaults are returned as-is.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables before parsing.
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if raw.KeywordsInclude != nil {
		cfg.KeywordsInclude = raw.KeywordsInclude
	}
	if raw.KeywordsExclude != nil {
		cfg.KeywordsExclude = raw.KeywordsExclude
	}
	if raw.RequiredTags != nil {
		cfg.RequiredTags = raw.RequiredTags
	}
	if raw.ExcludedCompanies != nil {
		cfg.ExcludedCompanies = raw.ExcludedCompanies
	}
	if raw.RemoteOnly != nil {
		cfg.RemoteOnly = *raw.RemoteOnly
	}
	if raw.AllowedRegions != nil {
		cfg.AllowedRegions = raw.AllowedRegions
	}
	if raw.MinSalary != nil {
		cfg.MinSalary = raw.MinSalary
	}
	if raw.AllowMissingSalary != nil {
		cfg.AllowMissingSalary = *raw.AllowMissingSalary
	}
	if raw.SeniorityAllowed != nil {
		cfg.SeniorityAllowed = raw.SeniorityAllowed
	}
	if raw.EmploymentTypesAllowed != nil {
		cfg.EmploymentTypesAllowed = raw.EmploymentTypesAllowed
	}
	if raw.PostedWithinDays != nil {
		cfg.PostedWithinDays = *raw.PostedWithinDays
	}
	if raw.Weights != nil {
		applyWeights(&cfg.Weights, raw.Weights)
	}
	if raw.SortBy != "" {
		cfg.SortBy = raw.SortBy
	}
	if raw.SortOrder != "" {
		cfg.SortOrder = raw.SortOrder
	}
	if raw.Sources != nil {
		cfg.Sources = *raw.Sources
	}
	if raw.CacheDir != "" {
		cfg.CacheDir = raw.CacheDir
	}
	if raw.CacheTTL != "" {
		ttl, err := time.ParseDuration(raw.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("parse cache_ttl %q: %w", raw.CacheTTL, err)
		}
		cfg.CacheTTL = ttl
	}
	if raw.OutputDir != "" {
		cfg.OutputDir = raw.OutputDir
	}
	if raw.Format != "" {
		cfg.Format = raw.Format
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyWeights(w *Weights, raw *rawWeights) {
	if raw.KeywordMatch != nil {
		w.KeywordMatch = *raw.KeywordMatch
	}
	if raw.TagMatch != nil {
		w.TagMatch = *raw.TagMatch
	}
	if raw.SeniorityMatch != nil {
		w.SeniorityMatch = *raw.SeniorityMatch
	}
	if raw.SalaryMatch != nil {
		w.SalaryMatch = *raw.SalaryMatch
	}
	if raw.ExcludePenalty != nil {
		w.ExcludePenalty = *raw.ExcludePenalty
	}
}

func validate(cfg *Config) error {
	switch cfg.SortBy {
	case "score", "postedAt", "salaryMax":
	default:
		return fmt.Errorf("sort_by must be one of score, postedAt, salaryMax; got %q", cfg.SortBy)
	}
	switch cfg.SortOrder {
	case "asc", "desc":
	default:
		return fmt.Errorf("sort_order must be asc or desc, got %q", cfg.SortOrder)
	}
	switch cfg.Format {
	case "md", "csv", "both":
	default:
		return fmt.Errorf("format must be md, csv or both, got %q", cfg.Format)
	}
	if cfg.CacheTTL <= 0 {
		return fmt.Errorf("cache_ttl must be positive, got %v", cfg.CacheTTL)
	}
	if cfg.PostedWithinDays < 0 {
		return fmt.Errorf("posted_within_days must not be negative, got %d", cfg.PostedWithinDays)
	}
	return nil
}
