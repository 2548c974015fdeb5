package pipeline

import (
	"context"

	"github.com/alanyoungcy/polyscout/internal/datasets"
	"github.com/alanyoungcy/polyscout/internal/domain"
)

// RecurringScanner discovers recurring up/down markets.
type RecurringScanner interface {
	Scan(ctx context.Context) ([]domain.MarketRecord, error)
}

// CryptoPass rebuilds crypto_markets.json.
type CryptoPass struct {
	scanner RecurringScanner
	sink    *datasets.Sink
}

// NewCryptoPass creates a CryptoPass.
func NewCryptoPass(scanner RecurringScanner, sink *datasets.Sink) *CryptoPass {
	return &CryptoPass{scanner: scanner, sink: sink}
}

// Name implements Pass.
func (p *CryptoPass) Name() string { return "crypto" }

// Run implements Pass. Nothing is written when no market was found.
func (p *CryptoPass) Run(ctx context.Context) (Result, error) {
	markets, err := p.scanner.Scan(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(markets) == 0 {
		return Result{Skipped: "no recurring markets found"}, nil
	}
	if err := p.sink.WriteJSON(ctx, domain.DatasetCryptoMarkets, markets); err != nil {
		return Result{}, err
	}
	return Result{Records: len(markets), Datasets: []string{domain.DatasetCryptoMarkets}}, nil
}
