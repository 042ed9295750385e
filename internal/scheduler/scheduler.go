// Package scheduler drives repeated scan runs on a cron spec for watch mode.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler wraps robfig/cron around a scan function.
type Scheduler struct {
	cron   *cron.Cron
	spec   string // cron spec, e.g. "@every 1h" or "0 8 * * *"
	scan   func(ctx context.Context) error
	logger *slog.Logger
}

// New creates a scheduler that runs scan on the given cron spec.
func New(spec string, scan func(ctx context.Context) error, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		spec:   spec,
		scan:   scan,
		logger: logger,
	}
}

// Run registers the scan job, performs one immediate scan so the first
// results don't wait for the first tick, then blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.runScan(ctx) }); err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.Info("watch mode started", "spec", s.spec)

	s.runScan(ctx)

	<-ctx.Done()
	s.logger.Info("shutting down watch mode")
	<-s.cron.Stop().Done()
	return nil
}

func (s *Scheduler) runScan(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := s.scan(ctx); err != nil {
		s.logger.Error("scan failed", "error", err)
	}
}
