package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler wraps robfig/cron and triggers ingestion cycles on a fixed
// interval. Overlapping cycles are skipped rather than queued: a slow cycle
// should not pile up behind itself.
type Scheduler struct {
	cron        *cron.Cron
	coordinator *Coordinator
	spec        string
	logger      *slog.Logger
}

func NewScheduler(coordinator *Coordinator, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DiscardLogger),
		)),
		coordinator: coordinator,
		spec:        fmt.Sprintf("@every %s", interval),
		logger:      logger,
	}
}

// Start registers the cycle job and starts the scheduler. One cycle runs
// immediately so a fresh deployment has data before the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.coordinator.RunCycle(ctx)
	})
	if err != nil {
		return fmt.Errorf("registering cycle job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "interval", s.spec)

	go s.coordinator.RunCycle(ctx)
	return nil
}

// AddTask registers an extra recurring task (such as company discovery) on
// the same cron instance. Overlap skipping applies to it as well.
func (s *Scheduler) AddTask(spec, name string, fn func()) error {
	if _, err := s.cron.AddFunc(spec, fn); err != nil {
		return fmt.Errorf("registering %s task: %w", name, err)
	}
	s.logger.Info("task scheduled", "task", name, "interval", spec)
	return nil
}

// Stop stops scheduling new cycles and waits for a running one to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}
