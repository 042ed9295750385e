package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/nejcm/job-scanner/internal/pipeline"
	"github.com/nejcm/job-scanner/internal/review"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Scan and browse the results interactively",
	Long:  "review runs a scan and opens a terminal UI for browsing kept and rejected postings side by side.",
	RunE:  runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}

	result, err := review.RunLoader(func(ctx context.Context) (pipeline.Result, error) {
		return executeScan(ctx, cfg, logger)
	})
	if err != nil {
		return err
	}

	return review.Run(result)
}
