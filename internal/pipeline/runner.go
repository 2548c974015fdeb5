// Package pipeline runs the discovery, crypto and reconciliation passes on
// their schedules. A pass always starts from fresh inputs and writes a
// complete output set, so a failed pass is simply retried from scratch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/polyscout/internal/domain"
	"github.com/alanyoungcy/polyscout/internal/notify"
)

// Result describes what a pass produced.
type Result struct {
	// Records is the number of rows in the pass's main dataset.
	Records int
	// Datasets lists the dataset names written.
	Datasets []string
	// Skipped explains why nothing was written, if so.
	Skipped string
}

// Pass is one unit of scheduled work.
type Pass interface {
	Name() string
	Run(ctx context.Context) (Result, error)
}

// Schedule is a pass's loop cadence.
type Schedule struct {
	// Interval is the sleep after a successful or skipped run.
	Interval time.Duration
	// RetryInterval is the fixed sleep after a failed run.
	RetryInterval time.Duration
}

// Runner executes passes with the optional cross-replica lock, run audit and
// notifications. Any of lock, audit and notifier may be nil.
type Runner struct {
	lock     domain.LockManager
	lockTTL  time.Duration
	audit    domain.PassAuditStore
	notifier *notify.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewRunner creates a Runner.
func NewRunner(lock domain.LockManager, lockTTL time.Duration, audit domain.PassAuditStore, notifier *notify.Notifier, logger *slog.Logger) *Runner {
	return &Runner{
		lock:     lock,
		lockTTL:  lockTTL,
		audit:    audit,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "runner")),
		now:      time.Now,
	}
}

// ErrPassLocked is returned by RunOnce when another replica holds the pass.
var ErrPassLocked = errors.New("pipeline: pass running elsewhere")

// RunOnce runs p a single time.
func (r *Runner) RunOnce(ctx context.Context, p Pass) (Result, error) {
	log := r.logger.With(slog.String("pass", p.Name()))

	if r.lock != nil {
		unlock, err := r.lock.Acquire(ctx, "pass:"+p.Name(), r.lockTTL)
		if errors.Is(err, domain.ErrLockHeld) {
			log.InfoContext(ctx, "pass locked by another replica")
			return Result{}, ErrPassLocked
		}
		if err != nil {
			return Result{}, fmt.Errorf("pipeline: lock %s: %w", p.Name(), err)
		}
		defer unlock()
	}

	started := r.now()
	log.InfoContext(ctx, "pass started")
	res, err := p.Run(ctx)
	finished := r.now()

	r.record(ctx, domain.PassRun{
		ID:         uuid.NewString(),
		Pass:       p.Name(),
		StartedAt:  started,
		FinishedAt: finished,
		Records:    res.Records,
		Err:        errString(err),
	})

	if err != nil {
		return res, fmt.Errorf("pipeline: %s pass: %w", p.Name(), err)
	}

	if res.Skipped != "" {
		log.InfoContext(ctx, "pass skipped", slog.String("reason", res.Skipped))
		r.notify(ctx, func() error { return r.notifier.PassSkipped(ctx, p.Name(), res.Skipped) })
	} else {
		for _, name := range res.Datasets {
			r.notify(ctx, func() error { return r.notifier.DatasetWritten(ctx, name, res.Records) })
		}
	}
	log.InfoContext(ctx, "pass finished",
		slog.Int("records", res.Records),
		slog.Duration("took", finished.Sub(started)),
	)
	return res, nil
}

// Loop runs p until ctx is cancelled, sleeping s.Interval after each
// successful run and s.RetryInterval after each failure. It returns
// ctx.Err() on shutdown.
func (r *Runner) Loop(ctx context.Context, p Pass, s Schedule) error {
	for {
		wait := s.Interval
		if _, err := r.RunOnce(ctx, p); err != nil && !errors.Is(err, ErrPassLocked) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			wait = s.RetryInterval
			r.logger.ErrorContext(ctx, "pass failed",
				slog.String("pass", p.Name()),
				slog.String("error", err.Error()),
				slog.Duration("retry_in", wait),
			)
			r.notify(ctx, func() error { return r.notifier.PassFailed(ctx, p.Name(), err, wait) })
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (r *Runner) record(ctx context.Context, run domain.PassRun) {
	if r.audit == nil {
		return
	}
	if err := r.audit.RecordRun(context.WithoutCancel(ctx), run); err != nil {
		r.logger.WarnContext(ctx, "record pass run failed",
			slog.String("pass", run.Pass),
			slog.String("error", err.Error()),
		)
	}
}

func (r *Runner) notify(ctx context.Context, send func() error) {
	if r.notifier == nil {
		return
	}
	if err := send(); err != nil {
		r.logger.WarnContext(ctx, "notification failed", slog.String("error", err.Error()))
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
