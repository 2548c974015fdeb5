package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/alanyoungcy/polyscout/internal/domain"
	"github.com/alanyoungcy/polyscout/internal/platform/polymarket"
)

// EventSource resolves a slug to a catalog event. A missing event is reported
// as an error wrapping domain.ErrNotFound.
type EventSource interface {
	GetEventBySlug(ctx context.Context, slug string) (polymarket.APIEvent, error)
}

// ScanTarget is one (asset, recurrence, horizon) entry of a scan plan.
type ScanTarget struct {
	Asset      string
	Recurrence domain.Recurrence
	Horizon    time.Duration
}

// DefaultScanPlan returns the recurring crypto markets tracked out of the box.
func DefaultScanPlan() []ScanTarget {
	var plan []ScanTarget
	for _, a := range []string{"bitcoin", "solana", "xrp"} {
		plan = append(plan, ScanTarget{Asset: a, Recurrence: domain.RecurrenceHourly, Horizon: 24 * time.Hour})
	}
	for _, a := range []string{"xrp", "eth", "sol"} {
		plan = append(plan, ScanTarget{Asset: a, Recurrence: domain.RecurrenceQuarter, Horizon: 6 * time.Hour})
	}
	for _, a := range []string{"xrp", "dogecoin"} {
		plan = append(plan, ScanTarget{Asset: a, Recurrence: domain.RecurrenceDaily, Horizon: 7 * 24 * time.Hour})
	}
	return plan
}

// Scanner discovers recurring markets by enumerating their expected slugs
// and resolving each one against the catalog.
type Scanner struct {
	events     EventSource
	normalizer *Normalizer
	plan       []ScanTarget
	delay      time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// NewScanner creates a Scanner. delay is slept after every catalog request.
func NewScanner(events EventSource, normalizer *Normalizer, plan []ScanTarget, delay time.Duration, logger *slog.Logger) *Scanner {
	return &Scanner{
		events:     events,
		normalizer: normalizer,
		plan:       plan,
		delay:      delay,
		now:        time.Now,
		logger:     logger.With(slog.String("component", "crypto_scanner")),
	}
}

// Scan walks the plan and returns the deduplicated markets sorted by
// recurrence then end date. Individual lookups that fail are logged and
// skipped; only context cancellation aborts the scan.
func (s *Scanner) Scan(ctx context.Context) ([]domain.MarketRecord, error) {
	now := s.now()
	var all []domain.MarketRecord

	for _, target := range s.plan {
		slugs, err := Enumerate(target.Asset, target.Recurrence, now, target.Horizon)
		if err != nil {
			return nil, fmt.Errorf("discovery: scan %s: %w", target.Asset, err)
		}

		found := 0
		for _, slug := range slugs {
			event, err := s.events.GetEventBySlug(ctx, slug)
			switch {
			case err == nil:
				for _, rec := range s.normalizer.NormalizeEvent(ctx, event) {
					rec.Recurrence = target.Recurrence
					all = append(all, rec)
					found++
				}
			case errors.Is(err, domain.ErrNotFound):
				s.logger.DebugContext(ctx, "no event for slug", slog.String("slug", slug))
			default:
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				s.logger.WarnContext(ctx, "event lookup failed",
					slog.String("slug", slug),
					slog.String("error", err.Error()),
				)
			}

			if err := sleepCtx(ctx, s.delay); err != nil {
				return nil, err
			}
		}

		s.logger.InfoContext(ctx, "scanned recurring markets",
			slog.String("asset", target.Asset),
			slog.String("recurrence", string(target.Recurrence)),
			slog.Int("slugs", len(slugs)),
			slog.Int("markets", found),
		)
	}

	unique := Dedup(all)
	SortRecurring(unique)
	return unique, nil
}

// SortRecurring orders records hourly, 15m, daily, then everything else,
// and by end date within each class.
func SortRecurring(records []domain.MarketRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		oi, oj := records[i].Recurrence.Order(), records[j].Recurrence.Order()
		if oi != oj {
			return oi < oj
		}
		return records[i].EndDate < records[j].EndDate
	})
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
