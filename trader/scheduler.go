package trader

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Run executes one cycle immediately and then one per poll interval until
// ctx is cancelled. Cycle errors are logged and never stop the loop.
func (l *Loop) Run(ctx context.Context) error {
	interval := l.settings.PollInterval
	if interval <= 0 {
		return fmt.Errorf("loop: poll interval must be > 0 (got %v)", interval)
	}

	cronLog := cron.PrintfLogger(slog.NewLogLogger(l.log.Handler(), slog.LevelDebug))
	c := cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	tick := func() {
		if ctx.Err() != nil {
			return
		}
		if cy, err := l.Step(ctx); err != nil {
			l.log.Warn("cycle skipped", "outcome", cy.Outcome, "state", cy.State.String(), "err", err)
		}
	}

	if _, err := c.AddFunc("@every "+interval.String(), tick); err != nil {
		return fmt.Errorf("schedule loop: %w", err)
	}

	l.log.Info("loop started", "interval", interval.String())
	tick()
	c.Start()

	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	l.log.Info("loop stopped", "state", l.State().String(), "stats", l.Stats())
	return nil
}
