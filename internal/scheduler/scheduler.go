package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/czmobin/karlancer/internal/model"
	"github.com/czmobin/karlancer/internal/notifier"
	"github.com/czmobin/karlancer/internal/poller"
)

// Scheduler owns the main loop: one immediate poll cycle, then ticks on the
// configured interval until the context is cancelled.
type Scheduler struct {
	poller   *poller.ProjectPoller
	interval time.Duration
	ledger   model.Ledger
	notify   model.Notifier
	logger   *slog.Logger
}

// NewScheduler creates a scheduler that runs the poller at the given interval.
func NewScheduler(p *poller.ProjectPoller, interval time.Duration, ledger model.Ledger, notify model.Notifier, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		poller:   p,
		interval: interval,
		ledger:   ledger,
		notify:   notify,
		logger:   logger,
	}
}

// Run starts the polling loop. It runs one immediate cycle, then ticks on the
// configured interval. It returns nil when ctx is cancelled (graceful shutdown).
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler", "interval", s.interval.String())

	// Run one immediate poll cycle.
	s.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return nil
		case <-time.After(s.interval):
			s.runCycle(ctx)
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := s.poller.ProcessCycle(ctx); err != nil {
		s.logger.Error("poll cycle failed", "error", err)
		if err := s.notify.Send(notifier.ErrorMessage(err.Error())); err != nil {
			s.logger.Warn("notification failed", "error", err)
		}
	}
}

// shutdown reports the lifetime totals one last time before the process exits.
func (s *Scheduler) shutdown() {
	s.logger.Info("shutting down scheduler")

	totals, err := s.ledger.Totals()
	if err != nil {
		s.logger.Warn("reading totals on shutdown failed", "error", err)
		return
	}
	s.logger.Info("session totals",
		"fetched", totals.Fetched,
		"analyzed", totals.Analyzed,
		"submitted", totals.Submitted,
		"failed", totals.Failed,
	)
	if err := s.notify.Send(notifier.Shutdown(totals)); err != nil {
		s.logger.Warn("notification failed", "error", err)
	}
}
