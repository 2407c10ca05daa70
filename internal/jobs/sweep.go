// Package jobs runs periodic maintenance inside the API process.
package jobs

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Sweeper drops expired entries and reports how many were removed.
type Sweeper interface {
	Sweep(now time.Time) int
}

// Scheduler wraps a cron runner.
type Scheduler struct {
	cron   *cron.Cron
	logger *logrus.Logger
}

// NewScheduler creates an idle scheduler.
func NewScheduler(logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		logger: logger,
	}
}

// AddSweep schedules sweeper on spec, a cron expression or descriptor such as "@every 5m".
func (s *Scheduler) AddSweep(spec string, sweeper Sweeper) error {
	_, err := s.cron.AddFunc(spec, func() {
		SweepOnce(sweeper, s.logger)
	})
	if err != nil {
		return fmt.Errorf("schedule revocation sweep %q: %w", spec, err)
	}
	return nil
}

// Start runs scheduled jobs in the background.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts scheduling and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// SweepOnce runs one sweep and logs the result.
func SweepOnce(sweeper Sweeper, logger *logrus.Logger) int {
	removed := sweeper.Sweep(time.Now())
	logger.WithField("removed", removed).Debug("revocation sweep complete")
	return removed
}
