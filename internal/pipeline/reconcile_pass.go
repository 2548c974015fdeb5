package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/polyscout/internal/datasets"
	"github.com/alanyoungcy/polyscout/internal/domain"
	"github.com/alanyoungcy/polyscout/internal/reconcile"
)

// OrderSource lists the account's open orders.
type OrderSource interface {
	GetOpenOrders(ctx context.Context) ([]domain.OrderRecord, error)
}

// PositionSource lists an address's open positions.
type PositionSource interface {
	GetPositions(ctx context.Context, address string) ([]domain.PositionRecord, error)
}

// EarningsSource lists per-market reward earnings.
type EarningsSource = reconcile.EarningsSource

// ReconcilePass rebuilds account_summary.json.
type ReconcilePass struct {
	orders    OrderSource
	positions PositionSource
	earnings  EarningsSource
	address   string
	sink      *datasets.Sink
	engine    *reconcile.Engine

	// positionsFailOpen treats a failed positions fetch as no positions.
	positionsFailOpen bool
	logger            *slog.Logger
}

// ReconcileSources groups the account data sources.
type ReconcileSources struct {
	Orders    OrderSource
	Positions PositionSource
	Earnings  EarningsSource
	// Address is the account whose positions are read.
	Address string
}

// NewReconcilePass creates a ReconcilePass. With positionsFailOpen a failed
// positions fetch is logged and treated as empty; otherwise it fails the
// pass.
func NewReconcilePass(src ReconcileSources, sink *datasets.Sink, engine *reconcile.Engine, positionsFailOpen bool, logger *slog.Logger) *ReconcilePass {
	return &ReconcilePass{
		orders:            src.Orders,
		positions:         src.Positions,
		earnings:          src.Earnings,
		address:           src.Address,
		sink:              sink,
		engine:            engine,
		positionsFailOpen: positionsFailOpen,
		logger:            logger.With(slog.String("component", "reconcile_pass")),
	}
}

// Name implements Pass.
func (p *ReconcilePass) Name() string { return "reconcile" }

// Run implements Pass.
func (p *ReconcilePass) Run(ctx context.Context) (Result, error) {
	selected, err := p.sink.SelectedMarkets(ctx)
	if err != nil {
		return Result{}, err
	}
	catalog, err := p.sink.Catalog(ctx)
	if err != nil {
		return Result{}, err
	}

	orders := p.fetchOrders(ctx)
	if orders.Failed() {
		return Result{}, fmt.Errorf("fetch orders: %w", orders.Err)
	}
	positions := p.fetchPositions(ctx)
	if positions.Failed() {
		if !p.positionsFailOpen {
			return Result{}, fmt.Errorf("fetch positions: %w", positions.Err)
		}
		p.logger.WarnContext(ctx, "positions fetch failed, treating as empty",
			slog.String("error", positions.Err.Error()),
		)
		positions = domain.Fetched[domain.PositionRecord](nil)
	}

	rows, err := p.engine.Reconcile(ctx, reconcile.Input{
		Orders:    orders.Items,
		Positions: positions.Items,
		Catalog:   catalog,
		Selected:  selected,
	}, p.earnings)
	if errors.Is(err, domain.ErrNothingToReconcile) {
		return Result{Skipped: "no orders or positions"}, nil
	}
	if err != nil {
		return Result{}, err
	}
	summary := reconcile.Summarize(rows)

	if err := p.sink.WriteJSON(ctx, domain.DatasetAccountSummary, summary); err != nil {
		return Result{}, err
	}
	return Result{Records: len(summary), Datasets: []string{domain.DatasetAccountSummary}}, nil
}

func (p *ReconcilePass) fetchOrders(ctx context.Context) domain.FetchResult[domain.OrderRecord] {
	orders, err := p.orders.GetOpenOrders(ctx)
	if err != nil {
		return domain.FetchFailed[domain.OrderRecord](err)
	}
	return domain.Fetched(orders)
}

func (p *ReconcilePass) fetchPositions(ctx context.Context) domain.FetchResult[domain.PositionRecord] {
	positions, err := p.positions.GetPositions(ctx, p.address)
	if err != nil {
		return domain.FetchFailed[domain.PositionRecord](err)
	}
	return domain.Fetched(positions)
}
