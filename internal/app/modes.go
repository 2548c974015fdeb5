package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/alanyoungcy/polyscout/internal/pipeline"
)

// errNoWallet is returned when reconciliation is requested without an
// account configured.
var errNoWallet = errors.New("app: reconcile needs a wallet key and browser address")

// DiscoverMode loops the full-catalog discovery pass.
func (a *App) DiscoverMode(ctx context.Context, deps *Dependencies) error {
	return a.loop(ctx, deps, []pipeline.Scheduled{a.discoveryScheduled(deps)})
}

// CryptoMode loops the recurring crypto-market pass.
func (a *App) CryptoMode(ctx context.Context, deps *Dependencies) error {
	return a.loop(ctx, deps, []pipeline.Scheduled{a.cryptoScheduled(deps)})
}

// ReconcileMode loops the account reconciliation pass.
func (a *App) ReconcileMode(ctx context.Context, deps *Dependencies) error {
	if deps.Reconcile == nil {
		return errNoWallet
	}
	return a.loop(ctx, deps, []pipeline.Scheduled{a.reconcileScheduled(deps)})
}

// OnceMode runs every enabled pass a single time, discovery first so that
// reconciliation sees the fresh catalog.
func (a *App) OnceMode(ctx context.Context, deps *Dependencies) error {
	passes, err := a.enabledPasses(deps)
	if err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "running passes once", slog.Int("passes", len(passes)))
	return pipeline.NewOrchestrator(deps.Runner, passes, a.logger).RunOnce(ctx)
}

// FullMode loops every enabled pass side by side.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	passes, err := a.enabledPasses(deps)
	if err != nil {
		return err
	}
	return a.loop(ctx, deps, passes)
}

func (a *App) loop(ctx context.Context, deps *Dependencies, passes []pipeline.Scheduled) error {
	err := pipeline.NewOrchestrator(deps.Runner, passes, a.logger).Run(ctx)
	if err == nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (a *App) enabledPasses(deps *Dependencies) ([]pipeline.Scheduled, error) {
	var passes []pipeline.Scheduled
	if a.cfg.Discovery.Enabled {
		passes = append(passes, a.discoveryScheduled(deps))
	}
	if a.cfg.Crypto.Enabled {
		passes = append(passes, a.cryptoScheduled(deps))
	}
	if a.cfg.Reconcile.Enabled {
		if deps.Reconcile == nil {
			return nil, errNoWallet
		}
		passes = append(passes, a.reconcileScheduled(deps))
	}
	if len(passes) == 0 {
		return nil, errors.New("app: no passes enabled")
	}
	return passes, nil
}

func (a *App) discoveryScheduled(deps *Dependencies) pipeline.Scheduled {
	return pipeline.Scheduled{
		Pass:     deps.Discovery,
		Schedule: schedule(a.cfg.Discovery.Interval.Duration, a.cfg.Discovery.RetryInterval.Duration),
	}
}

func (a *App) cryptoScheduled(deps *Dependencies) pipeline.Scheduled {
	return pipeline.Scheduled{
		Pass:     deps.Crypto,
		Schedule: schedule(a.cfg.Crypto.Interval.Duration, a.cfg.Crypto.RetryInterval.Duration),
	}
}

func (a *App) reconcileScheduled(deps *Dependencies) pipeline.Scheduled {
	return pipeline.Scheduled{
		Pass:     deps.Reconcile,
		Schedule: schedule(a.cfg.Reconcile.Interval.Duration, a.cfg.Reconcile.RetryInterval.Duration),
	}
}
