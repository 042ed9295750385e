package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nejcm/job-scanner/internal/cache"
	"github.com/nejcm/job-scanner/internal/config"
	"github.com/nejcm/job-scanner/internal/fetch"
	"github.com/nejcm/job-scanner/internal/model"
	"github.com/nejcm/job-scanner/internal/pipeline"
	"github.com/nejcm/job-scanner/internal/source"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobscanner",
	Short: "Aggregate, dedupe and rank job postings from multiple sources",
	Long:  "jobscanner pulls postings from job boards and feeds, collapses duplicates, applies your rules and writes a ranked report.",
	// Default to `scan` so that `jobscanner` with no args runs one scan.
	RunE: runScan,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBSCANNER_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBSCANNER_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("JOBSCANNER_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// buildAdapters assembles the enabled source adapters in config order.
func buildAdapters(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) []model.SourceAdapter {
	var adapters []model.SourceAdapter

	if cfg.Sources.RemoteOK {
		adapters = append(adapters, source.NewRemoteOKAdapter(httpClient))
	}
	if cfg.Sources.WeWorkRemotely {
		adapters = append(adapters, source.NewWeWorkRemotelyAdapter(httpClient))
	}
	if cfg.Sources.WorkingNomads {
		adapters = append(adapters, source.NewWorkingNomadsAdapter(httpClient))
	}
	for _, custom := range cfg.Sources.CustomHTML {
		if !custom.Enabled {
			continue
		}
		adapters = append(adapters, source.NewCustomHTMLAdapter(custom.Name, custom.URL, httpClient))
	}
	if len(cfg.Sources.RSSFeeds) > 0 {
		adapters = append(adapters, source.NewRSSAdapter(cfg.Sources.RSSFeeds, httpClient, logger))
	}

	for _, a := range adapters {
		logger.Debug("registered source", "source", a.Name())
	}
	return adapters
}

// executeScan runs one full acquisition-to-decision pass.
func executeScan(ctx context.Context, cfg *config.Config, logger *slog.Logger) (pipeline.Result, error) {
	scrapedAt := time.Now().UTC()

	httpClient := &http.Client{Timeout: 30 * time.Second}
	adapters := buildAdapters(cfg, httpClient, logger)

	policy := fetch.DefaultPolicy()
	policy.CacheTTL = cfg.CacheTTL
	orchestrator := fetch.New(cache.NewFileStore(cfg.CacheDir), policy, logger)

	batches, err := orchestrator.FetchAll(ctx, adapters)
	if err != nil {
		return pipeline.Result{}, err
	}

	result := pipeline.Run(batches, cfg, scrapedAt)
	logger.Info("scan complete",
		"fetched", result.Counts.Fetched,
		"after_dedupe", result.Counts.AfterDedupe,
		"kept", result.Counts.AfterFilter,
		"rejected", len(result.Reasons),
	)
	return result, nil
}
