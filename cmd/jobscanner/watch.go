package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nejcm/job-scanner/internal/report"
	"github.com/nejcm/job-scanner/internal/scheduler"
)

var cronSpec string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run scans on a schedule until interrupted",
	Long:  "watch runs a scan immediately, then repeats on the given cron schedule. Each scan writes a fresh report.",
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&cronSpec, "cron", "@every 1h", "cron schedule (e.g. \"0 9 * * *\" or \"@every 30m\")")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	writer := report.NewWriter(cfg.OutputDir, cfg.Format)
	scan := func(ctx context.Context) error {
		result, err := executeScan(ctx, cfg, logger)
		if err != nil {
			return err
		}
		summary, err := writer.Write(result, time.Now())
		if err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Println(summary)
		return nil
	}

	return scheduler.New(cronSpec, scan, logger).Run(ctx)
}
