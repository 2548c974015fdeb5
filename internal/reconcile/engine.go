// Package reconcile joins the account's live orders and positions with the
// market catalog and reward earnings into one exposure row per asset.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/alanyoungcy/polyscout/internal/domain"
)

// Input is the point-in-time account state and catalog for one pass.
type Input struct {
	Orders    []domain.OrderRecord
	Positions []domain.PositionRecord
	// Catalog is the discovered market set matched against on token ids.
	Catalog []domain.MarketRecord
	// Selected is the traded subset; only its questions are used.
	Selected []domain.MarketRecord
}

// EarningsSource lists per-market reward earnings.
type EarningsSource interface {
	GetEarnings(ctx context.Context) ([]domain.EarningsRecord, error)
}

// Engine performs the reconciliation join.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates an Engine.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{logger: logger.With(slog.String("component", "reconcile"))}
}

// Reconcile returns one row per asset id in the orders or positions, ordered
// by earnings descending. It returns domain.ErrNothingToReconcile when both
// orders and positions are empty; earnings are only fetched otherwise.
func (e *Engine) Reconcile(ctx context.Context, in Input, earnings EarningsSource) ([]domain.ReconciledRow, error) {
	rows, err := e.Combine(in.Orders, in.Positions, in.Catalog, in.Selected)
	if err != nil {
		return nil, err
	}
	records, err := earnings.GetEarnings(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch earnings: %w", err)
	}
	return AttachEarnings(rows, records), nil
}

// Combine performs the order/position union and the catalog match. Rows come
// back with non-selected markets first, then by question.
func (e *Engine) Combine(orders []domain.OrderRecord, positions []domain.PositionRecord, catalog, selected []domain.MarketRecord) ([]domain.ReconciledRow, error) {
	if len(orders) == 0 && len(positions) == 0 {
		return nil, domain.ErrNothingToReconcile
	}

	rows := union(orders, positions)
	idx := newCatalogIndex(catalog)
	inSelected := questionSet(selected)

	unmatched := 0
	for i := range rows {
		idx.resolve(&rows[i])
		if rows[i].MatchedVia == domain.MatchNone {
			unmatched++
		}
		_, rows[i].MarketInSelected = inSelected[rows[i].Question]
	}
	if unmatched > 0 {
		e.logger.Warn("assets missing from catalog", slog.Int("count", unmatched))
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].MarketInSelected != rows[j].MarketInSelected {
			return !rows[i].MarketInSelected
		}
		return rows[i].Question < rows[j].Question
	})
	return rows, nil
}

// AttachEarnings left-joins earnings by exact question and stable-sorts the
// rows by earnings descending. Duplicate earnings questions keep the first.
func AttachEarnings(rows []domain.ReconciledRow, earnings []domain.EarningsRecord) []domain.ReconciledRow {
	byQuestion := make(map[string]domain.EarningsRecord, len(earnings))
	for _, e := range earnings {
		if _, dup := byQuestion[e.Question]; !dup {
			byQuestion[e.Question] = e
		}
	}

	out := make([]domain.ReconciledRow, len(rows))
	copy(out, rows)
	for i := range out {
		if e, ok := byQuestion[out[i].Question]; ok {
			out[i].Earnings = e.Earnings
			out[i].EarningPercentage = e.EarningPercentage
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Earnings > out[j].Earnings })
	return out
}

// union outer-joins orders and positions on asset id in first-seen order.
// Several orders on one asset collapse into one: sizes add up, the price is
// size weighted and distinct sides are joined with "/". Duplicate positions
// add their sizes and keep the first record's prices.
func union(orders []domain.OrderRecord, positions []domain.PositionRecord) []domain.ReconciledRow {
	var rows []domain.ReconciledRow
	at := make(map[string]int)
	row := func(asset string) *domain.ReconciledRow {
		if i, ok := at[asset]; ok {
			return &rows[i]
		}
		at[asset] = len(rows)
		rows = append(rows, domain.ReconciledRow{AssetID: asset})
		return &rows[len(rows)-1]
	}

	notional := make(map[string]float64)
	firstPrice := make(map[string]float64)
	for _, o := range orders {
		r := row(o.AssetID)
		if _, seen := firstPrice[o.AssetID]; !seen {
			firstPrice[o.AssetID] = o.Price
		}
		r.OrderSize += o.Size
		notional[o.AssetID] += o.Size * o.Price
		r.OrderSide = appendSide(r.OrderSide, string(o.Side))
	}
	for asset, n := range notional {
		r := &rows[at[asset]]
		if r.OrderSize > 0 {
			r.OrderPrice = n / r.OrderSize
		} else {
			r.OrderPrice = firstPrice[asset]
		}
	}

	seenPos := make(map[string]bool)
	for _, p := range positions {
		r := row(p.Asset)
		r.PositionSize += p.Size
		if !seenPos[p.Asset] {
			seenPos[p.Asset] = true
			r.AvgPrice = p.AvgPrice
			r.CurPrice = p.CurPrice
			r.PercentPnl = p.PercentPnl
		}
	}
	return rows
}

func appendSide(sides, side string) string {
	if side == "" {
		return sides
	}
	if sides == "" {
		return side
	}
	for _, s := range strings.Split(sides, "/") {
		if s == side {
			return sides
		}
	}
	return sides + "/" + side
}

type catalogIndex struct {
	byToken1 map[string]domain.MarketRecord
	byToken2 map[string]domain.MarketRecord
}

func newCatalogIndex(catalog []domain.MarketRecord) catalogIndex {
	idx := catalogIndex{
		byToken1: make(map[string]domain.MarketRecord, len(catalog)),
		byToken2: make(map[string]domain.MarketRecord, len(catalog)),
	}
	for _, m := range catalog {
		if _, dup := idx.byToken1[m.Token1]; m.Token1 != "" && !dup {
			idx.byToken1[m.Token1] = m
		}
		if _, dup := idx.byToken2[m.Token2]; m.Token2 != "" && !dup {
			idx.byToken2[m.Token2] = m
		}
	}
	return idx
}

// resolve matches on token1 first and only then on token2.
func (c catalogIndex) resolve(r *domain.ReconciledRow) {
	if m, ok := c.byToken1[r.AssetID]; ok {
		r.Question, r.Answer, r.MatchedVia = m.Question, m.Answer1, domain.MatchToken1
		return
	}
	if m, ok := c.byToken2[r.AssetID]; ok {
		r.Question, r.Answer, r.MatchedVia = m.Question, m.Answer2, domain.MatchToken2
		if r.Answer == "" {
			r.Answer = domain.UnknownAnswer
		}
		return
	}
	r.Question, r.Answer, r.MatchedVia = r.AssetID, domain.UnknownAnswer, domain.MatchNone
}

func questionSet(markets []domain.MarketRecord) map[string]struct{} {
	set := make(map[string]struct{}, len(markets))
	for _, m := range markets {
		if m.Question != "" {
			set[m.Question] = struct{}{}
		}
	}
	return set
}
