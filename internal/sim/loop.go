package sim

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/oredrift/server/internal/core/system"
)

// Loop drives the simulation at a fixed tick rate. A tick that exceeds its
// budget logs a warning; catch-up shortens the next idle wait rather than
// skipping steps, so the logical clock always accounts for real elapsed
// time, one fixed tick at a time.
type Loop struct {
	runner *system.Runner
	clock  *Clock
	tick   time.Duration
	log    *zap.Logger
}

func NewLoop(runner *system.Runner, clock *Clock, tick time.Duration, log *zap.Logger) *Loop {
	return &Loop{
		runner: runner,
		clock:  clock,
		tick:   tick,
		log:    log,
	}
}

// Step advances the simulation by exactly one tick. Exposed so tests can
// drive the loop deterministically without timers.
func (l *Loop) Step() {
	l.clock.Advance(l.tick)
	l.runner.Tick(l.tick)
}

// Run blocks, stepping until the context is cancelled.
func (l *Loop) Run(ctx context.Context) {
	next := time.Now().Add(l.tick)
	timer := time.NewTimer(l.tick)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		start := time.Now()
		l.Step()
		elapsed := time.Since(start)
		if elapsed > l.tick {
			l.log.Warn("tick overran budget",
				zap.Duration("elapsed", elapsed),
				zap.Duration("budget", l.tick),
			)
		}

		next = next.Add(l.tick)
		wait := time.Until(next)
		if wait < 0 {
			// Behind schedule: run the next tick immediately and restart
			// the schedule from now instead of piling up debt.
			next = time.Now()
			wait = 0
		}
		timer.Reset(wait)
	}
}
