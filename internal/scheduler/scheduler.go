package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/industy/leaverisk/internal/engine"
	"github.com/industy/leaverisk/internal/storage"
	"go.uber.org/zap"
)

// Trigger names recorded with each run.
const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
	TriggerOnce     = "once"
)

// GuardedRunner performs a run, joining any run already in flight.
// engine.Guard implements it.
type GuardedRunner interface {
	Run(ctx context.Context) (*engine.Report, bool, error)
}

// HealthReporter is told the outcome of every run.
type HealthReporter interface {
	ReportRun(err error)
}

// Config wires a Scheduler.
type Config struct {
	Runner   GuardedRunner
	Writer   storage.RunWriter
	Health   HealthReporter // optional
	Interval time.Duration
	Timeout  time.Duration // applied to every run's store calls
	Logger   *zap.Logger
}

// Scheduler triggers risk runs on a fixed interval and on demand. Scheduled
// and manual runs may overlap; the runner is expected to collapse them.
type Scheduler struct {
	runner   GuardedRunner
	writer   storage.RunWriter
	health   HealthReporter
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	wg sync.WaitGroup
}

// New creates a Scheduler. Call Start to begin the schedule.
func New(cfg Config) *Scheduler {
	return &Scheduler{
		runner:   cfg.Runner,
		writer:   cfg.Writer,
		health:   cfg.Health,
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
		logger:   cfg.Logger,
	}
}

// Start runs once immediately and then every interval until ctx is done.
// It returns without blocking; use Wait to block until all runs finish.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(ctx)
	}()
}

func (s *Scheduler) loop(ctx context.Context) {
	s.RunOnce(ctx, TriggerSchedule) //nolint:errcheck // outcome is recorded by RunOnce

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx, TriggerSchedule) //nolint:errcheck
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		}
	}
}

// Trigger starts a manual run in the background. If a run is already in
// flight the manual request joins it.
func (s *Scheduler) Trigger(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.RunOnce(ctx, TriggerManual) //nolint:errcheck
	}()
}

// Wait blocks until the schedule loop and any manual runs have returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// RunOnce performs a single guarded run, records its outcome and returns the
// run error, if any.
func (s *Scheduler) RunOnce(ctx context.Context, trigger string) error {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	report, shared, err := s.runner.Run(runCtx)

	s.writer.Write(storage.NewRunEvent(trigger, started, report, shared, err))
	if s.health != nil {
		s.health.ReportRun(err)
	}

	if err != nil {
		s.logger.Error("risk run failed",
			zap.String("trigger", trigger),
			zap.Bool("shared", shared),
			zap.Error(err),
		)
		return err
	}

	s.logger.Info("risk run finished",
		zap.String("trigger", trigger),
		zap.String("run_id", report.RunID),
		zap.Bool("shared", shared),
		zap.Int("alerts", len(report.Alerts)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return nil
}
