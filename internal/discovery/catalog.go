package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alanyoungcy/polyscout/internal/domain"
	"github.com/alanyoungcy/polyscout/internal/platform/polymarket"
)

// USDCAddress is the Polygon USDC.e contract rewards are paid in.
const USDCAddress = "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"

// historyFidelity is the price-history sample spacing in minutes.
const historyFidelity = 10

// CatalogSource is the part of the CLOB client the catalog builder reads.
type CatalogSource interface {
	GetSamplingMarkets(ctx context.Context, cursor string) (polymarket.APISamplingPage, error)
	GetPriceHistory(ctx context.Context, tokenID string, fidelityMinutes int) ([]polymarket.APIPricePoint, error)
}

// CatalogBuilder turns the reward-eligible market list into fully featured
// MarketRecords: top of book, reward-per-100 estimates and volatility.
type CatalogBuilder struct {
	source      CatalogSource
	books       BookSampler
	makerReward float64
	delay       time.Duration
	logger      *slog.Logger
}

// NewCatalogBuilder creates a CatalogBuilder. delay is slept after each
// market's book and history requests.
func NewCatalogBuilder(source CatalogSource, books BookSampler, makerReward float64, delay time.Duration, logger *slog.Logger) *CatalogBuilder {
	return &CatalogBuilder{
		source:      source,
		books:       books,
		makerReward: makerReward,
		delay:       delay,
		logger:      logger.With(slog.String("component", "catalog_builder")),
	}
}

// SamplingMarkets pages through every sampling market. A failed page aborts
// the listing.
func (b *CatalogBuilder) SamplingMarkets(ctx context.Context) ([]polymarket.APISamplingMarket, error) {
	var all []polymarket.APISamplingMarket
	cursor := ""
	for {
		page, err := b.source.GetSamplingMarkets(ctx, cursor)
		if err != nil {
			return nil, fmt.Errorf("discovery: list sampling markets: %w", err)
		}
		all = append(all, page.Data...)
		if page.NextCursor == "" || page.NextCursor == polymarket.EndCursor || page.NextCursor == cursor {
			return all, nil
		}
		cursor = page.NextCursor
	}
}

// Build lists, filters and features the reward-eligible catalog. Records are
// returned in catalog order, deduplicated by condition id.
func (b *CatalogBuilder) Build(ctx context.Context) ([]domain.MarketRecord, error) {
	markets, err := b.SamplingMarkets(ctx)
	if err != nil {
		return nil, err
	}
	b.logger.InfoContext(ctx, "listed sampling markets", slog.Int("count", len(markets)))

	var out []domain.MarketRecord
	for i := range markets {
		rec, ok := RecordFromSampling(markets[i])
		if !ok {
			continue
		}

		quote := b.books.GetOrderBook(ctx, rec.Token1)
		if quote.Status == domain.BookFailed {
			b.logger.WarnContext(ctx, "book fetch failed, pricing at zero",
				slog.String("token", rec.Token1),
				slog.Any("error", quote.Err),
			)
		}
		rec.BestBid, rec.BestAsk = quote.BestBid, quote.BestAsk
		rec.Spread = Spread(quote.BestBid, quote.BestAsk)
		rec.VolatilityPrice = VolatilityPrice(quote.BestBid, quote.BestAsk)
		ApplyRewards(&rec, quote, b.makerReward)

		history, err := b.source.GetPriceHistory(ctx, rec.Token1, historyFidelity)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			b.logger.WarnContext(ctx, "price history unavailable",
				slog.String("token", rec.Token1),
				slog.String("error", err.Error()),
			)
		}
		ApplyVolatility(&rec, history)

		out = append(out, rec)
		if err := sleepCtx(ctx, b.delay); err != nil {
			return nil, err
		}
	}
	return Dedup(out), nil
}

// RecordFromSampling maps a sampling market to a MarketRecord without book
// or history features. It reports false for markets that are closed,
// inactive, not binary, or not paying USDC rewards.
func RecordFromSampling(m polymarket.APISamplingMarket) (domain.MarketRecord, bool) {
	if !m.Active || m.Closed || len(m.Tokens) != 2 {
		return domain.MarketRecord{}, false
	}
	if m.Tokens[0].TokenID == "" || m.Tokens[1].TokenID == "" {
		return domain.MarketRecord{}, false
	}

	rate, ok := usdcRate(m.Rewards.Rates)
	if !ok {
		return domain.MarketRecord{}, false
	}

	rec := domain.MarketRecord{
		Question:         m.Question,
		Answer1:          m.Tokens[0].Outcome,
		Answer2:          m.Tokens[1].Outcome,
		RewardsDailyRate: rate,
		VolatilityReward: "0",
		MinSize:          float64(m.Rewards.MinSize),
		VolatilityPrice:  neutralPrice,
		MaxSpread:        float64(m.Rewards.MaxSpread),
		TickSize:         orDefault(float64(m.MinimumTickSize), DefaultTickSize),
		NegRisk:          m.NegRisk,
		MarketSlug:       m.MarketSlug,
		Token1:           m.Tokens[0].TokenID,
		Token2:           m.Tokens[1].TokenID,
		ConditionID:      m.ConditionID,
		EndDate:          m.EndDateISO,
	}.WithDefaultTradeParams()
	return rec, true
}

func usdcRate(rates []polymarket.APIRewardRate) (float64, bool) {
	for _, r := range rates {
		if strings.EqualFold(r.AssetAddress, USDCAddress) {
			return float64(r.RewardsDailyRate), true
		}
	}
	return 0, false
}
