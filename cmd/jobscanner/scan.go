package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nejcm/job-scanner/internal/report"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a single scan and write the report",
	RunE:  runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := executeScan(ctx, cfg, logger)
	if err != nil {
		return err
	}

	writer := report.NewWriter(cfg.OutputDir, cfg.Format)
	summary, err := writer.Write(result, time.Now())
	if err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	fmt.Println(summary)
	return nil
}
