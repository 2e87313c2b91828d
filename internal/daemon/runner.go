// Package daemon runs sync cycles on a fixed period.
package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// CycleFunc runs one sync cycle identified by cycle.
type CycleFunc func(ctx context.Context, cycle string) error

type Runner struct {
	Clock    clockwork.Clock
	Interval time.Duration
	// Once runs a single cycle and returns its error.
	Once   bool
	Logger *slog.Logger
	Cycle  CycleFunc
}

// Start runs a cycle immediately and then one per Interval, measured from the
// end of the previous cycle, until ctx is cancelled. Cycle errors are logged
// and do not stop the loop.
func (r *Runner) Start(ctx context.Context) error {
	clock := r.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	log := r.Logger
	if log == nil {
		log = slog.Default()
	}

	for {
		cycle := uuid.NewString()
		err := r.Cycle(ctx, cycle)
		if r.Once {
			return err
		}
		if err != nil {
			log.Error("sync cycle failed", "cycle", cycle, "error", err)
		}

		log.Debug("waiting for next cycle", "interval", r.Interval)
		select {
		case <-ctx.Done():
			log.Info("stopping", "reason", context.Cause(ctx))
			return nil
		case <-clock.After(r.Interval):
		}
	}
}
