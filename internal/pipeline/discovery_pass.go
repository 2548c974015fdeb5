package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/polyscout/internal/datasets"
	"github.com/alanyoungcy/polyscout/internal/domain"
	"github.com/alanyoungcy/polyscout/internal/ranking"
)

// CatalogBuilder produces the featured reward-eligible catalog.
type CatalogBuilder interface {
	Build(ctx context.Context) ([]domain.MarketRecord, error)
}

// DiscoveryPass rebuilds full_markets.json, all_markets.json and
// volatility_markets.json from the CLOB catalog.
type DiscoveryPass struct {
	builder       CatalogBuilder
	sink          *datasets.Sink
	minMarkets    int
	volatilityCap float64
	logger        *slog.Logger
}

// NewDiscoveryPass creates a DiscoveryPass. Outputs are written only when
// more than minMarkets records were built.
func NewDiscoveryPass(builder CatalogBuilder, sink *datasets.Sink, minMarkets int, volatilityCap float64, logger *slog.Logger) *DiscoveryPass {
	return &DiscoveryPass{
		builder:       builder,
		sink:          sink,
		minMarkets:    minMarkets,
		volatilityCap: volatilityCap,
		logger:        logger.With(slog.String("component", "discovery_pass")),
	}
}

// Name implements Pass.
func (p *DiscoveryPass) Name() string { return "discovery" }

// Run implements Pass.
func (p *DiscoveryPass) Run(ctx context.Context) (Result, error) {
	p.checkParams(ctx)

	records, err := p.builder.Build(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(records) <= p.minMarkets {
		return Result{Records: len(records), Skipped: fmt.Sprintf("only %d markets, need more than %d", len(records), p.minMarkets)}, nil
	}

	outputs := []struct {
		name string
		rows []domain.MarketRecord
	}{
		{domain.DatasetAllMarkets, ranking.Rank(records)},
		{domain.DatasetVolatilityMarkets, ranking.LowVolatility(records, p.volatilityCap)},
		{domain.DatasetFullMarkets, records},
	}

	res := Result{Records: len(records)}
	for _, out := range outputs {
		if err := p.sink.WriteJSON(ctx, out.name, out.rows); err != nil {
			p.logger.ErrorContext(ctx, "discovery outputs partially written",
				slog.String("failed", out.name),
				slog.String("written", strings.Join(res.Datasets, ",")),
			)
			return res, err
		}
		res.Datasets = append(res.Datasets, out.name)
	}
	return res, nil
}

// checkParams warns about selected markets whose param_type has no entry in
// params.json. The file is only read.
func (p *DiscoveryPass) checkParams(ctx context.Context) {
	params, err := p.sink.Params(ctx)
	if err != nil {
		p.logger.WarnContext(ctx, "params unreadable", slog.String("error", err.Error()))
		return
	}
	selected, err := p.sink.SelectedMarkets(ctx)
	if err != nil {
		p.logger.WarnContext(ctx, "selected markets unreadable", slog.String("error", err.Error()))
		return
	}
	missing, err := datasets.MissingParamTypes(params, selected)
	if err != nil {
		p.logger.WarnContext(ctx, "params check failed", slog.String("error", err.Error()))
		return
	}
	if len(missing) > 0 {
		p.logger.WarnContext(ctx, "param types missing from params.json",
			slog.String("param_types", strings.Join(missing, ",")),
		)
	}
}
