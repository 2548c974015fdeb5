package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Scheduled pairs a pass with its cadence.
type Scheduled struct {
	Pass     Pass
	Schedule Schedule
}

// Orchestrator runs a set of passes.
type Orchestrator struct {
	runner *Runner
	passes []Scheduled
	logger *slog.Logger
}

// NewOrchestrator creates an Orchestrator over passes.
func NewOrchestrator(runner *Runner, passes []Scheduled, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		runner: runner,
		passes: passes,
		logger: logger.With(slog.String("component", "orchestrator")),
	}
}

// Run loops every pass side by side until ctx is cancelled. Passes share no
// state; each loop is sequential on its own.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.InfoContext(ctx, "orchestrator starting", slog.Int("passes", len(o.passes)))

	g, ctx := errgroup.WithContext(ctx)
	for _, sp := range o.passes {
		g.Go(func() error {
			o.logger.InfoContext(ctx, "starting pass loop",
				slog.String("pass", sp.Pass.Name()),
				slog.Duration("interval", sp.Schedule.Interval),
				slog.Duration("retry_interval", sp.Schedule.RetryInterval),
			)
			err := o.runner.Loop(ctx, sp.Pass, sp.Schedule)
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("%s loop: %w", sp.Pass.Name(), err)
		})
	}

	if err := g.Wait(); err != nil {
		o.logger.Error("orchestrator stopped with error", slog.String("error", err.Error()))
		return err
	}
	o.logger.Info("orchestrator stopped cleanly")
	return nil
}

// RunOnce runs every pass a single time in order and returns the joined
// failures. A locked pass is not a failure.
func (o *Orchestrator) RunOnce(ctx context.Context) error {
	var errs []error
	for _, sp := range o.passes {
		if _, err := o.runner.RunOnce(ctx, sp.Pass); err != nil && !errors.Is(err, ErrPassLocked) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
