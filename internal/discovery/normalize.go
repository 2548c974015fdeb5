package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/polyscout/internal/domain"
	"github.com/alanyoungcy/polyscout/internal/platform/polymarket"
)

// Defaults for recurring-feed markets, which carry no reward configuration.
const (
	DefaultMaxSpread = 10
	DefaultMinSize   = 5
	DefaultTickSize  = 0.001
	neutralPrice     = 0.5
)

// ErrInactive marks a market skipped because it is not open for trading.
var ErrInactive = errors.New("discovery: market inactive or closed")

// BookSampler returns the top of book for a token. Implementations never
// fail; a failed fetch is reported through BookQuote.Status.
type BookSampler interface {
	GetOrderBook(ctx context.Context, tokenID string) domain.BookQuote
}

// Normalizer maps catalog event payloads to MarketRecords.
type Normalizer struct {
	books  BookSampler
	logger *slog.Logger
}

// NewNormalizer creates a Normalizer that prices markets with books.
func NewNormalizer(books BookSampler, logger *slog.Logger) *Normalizer {
	return &Normalizer{
		books:  books,
		logger: logger.With(slog.String("component", "normalizer")),
	}
}

// NormalizeEvent returns one record per tradable two-outcome market of the
// event. Rejected markets are logged and skipped.
func (n *Normalizer) NormalizeEvent(ctx context.Context, event polymarket.APIEvent) []domain.MarketRecord {
	var out []domain.MarketRecord
	for _, m := range event.Markets {
		rec, err := n.Normalize(ctx, event, m)
		switch {
		case errors.Is(err, ErrInactive):
			n.logger.DebugContext(ctx, "skipping inactive market",
				slog.String("event", event.Slug),
				slog.String("question", m.Question),
			)
		case err != nil:
			n.logger.WarnContext(ctx, "rejecting malformed market",
				slog.String("event", event.Slug),
				slog.String("question", m.Question),
				slog.String("error", err.Error()),
			)
		default:
			out = append(out, rec)
		}
	}
	return out
}

// Normalize converts a single market nested in event. It returns ErrInactive
// for inactive or closed markets and an error wrapping
// domain.ErrMalformedRecord when the outcome or token lists do not parse to
// exactly two entries.
func (n *Normalizer) Normalize(ctx context.Context, event polymarket.APIEvent, m polymarket.APIMarket) (domain.MarketRecord, error) {
	if !bool(m.Active) || bool(m.Closed) {
		return domain.MarketRecord{}, ErrInactive
	}

	tokens, err := ParsePair(m.ClobTokenIDs)
	if err != nil {
		return domain.MarketRecord{}, fmt.Errorf("clobTokenIds: %w", err)
	}
	outcomes, err := ParsePair(m.Outcomes)
	if err != nil {
		return domain.MarketRecord{}, fmt.Errorf("outcomes: %w", err)
	}

	quote := n.books.GetOrderBook(ctx, tokens[0])
	if quote.Status == domain.BookFailed {
		n.logger.WarnContext(ctx, "book fetch failed, pricing at zero",
			slog.String("token", tokens[0]),
			slog.Any("error", quote.Err),
		)
	}

	rec := domain.MarketRecord{
		Question:         m.Question,
		Answer1:          outcomes[0],
		Answer2:          outcomes[1],
		Spread:           Spread(quote.BestBid, quote.BestAsk),
		VolatilityReward: "0",
		MinSize:          orDefault(float64(m.OrderMinSize), DefaultMinSize),
		BestBid:          quote.BestBid,
		BestAsk:          quote.BestAsk,
		VolatilityPrice:  VolatilityPrice(quote.BestBid, quote.BestAsk),
		MaxSpread:        DefaultMaxSpread,
		TickSize:         orDefault(float64(m.OrderPriceMinTickSize), DefaultTickSize),
		NegRisk:          bool(m.NegRisk),
		MarketSlug:       m.Slug,
		Token1:           tokens[0],
		Token2:           tokens[1],
		ConditionID:      m.ConditionID,
		EndDate:          m.EndDate,
		Volume24hr:       float64(m.Volume24hr),
		Recurrence:       domain.RecurrenceUnknown,
	}.WithDefaultTradeParams()

	if len(event.Series) > 0 {
		rec.SeriesSlug = event.Series[0].Slug
		if event.Series[0].Recurrence != "" {
			rec.Recurrence = domain.Recurrence(event.Series[0].Recurrence)
		}
	}
	return rec, nil
}

// Spread returns ask-bid rounded to 4 places when both sides are quoted,
// else 0.
func Spread(bid, ask float64) float64 {
	if bid > 0 && ask > 0 {
		return domain.Round(ask-bid, 4)
	}
	return 0
}

// VolatilityPrice returns the midpoint rounded to 4 places when both sides
// are quoted, else the neutral 0.5.
func VolatilityPrice(bid, ask float64) float64 {
	if bid > 0 && ask > 0 {
		return domain.Round((bid+ask)/2, 4)
	}
	return neutralPrice
}

func orDefault(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}

// ParsePair parses a string-encoded JSON list such as `["Yes", "No"]` or
// `[123, "456"]` and requires exactly two elements. Elements must be strings
// or numbers; numbers keep their literal text.
func ParsePair(literal string) ([2]string, error) {
	var pair [2]string

	dec := json.NewDecoder(bytes.NewReader([]byte(literal)))
	dec.UseNumber()
	var raw []any
	if err := dec.Decode(&raw); err != nil {
		return pair, fmt.Errorf("%w: %v", domain.ErrMalformedRecord, err)
	}
	if dec.More() {
		return pair, fmt.Errorf("%w: trailing data after list", domain.ErrMalformedRecord)
	}
	if len(raw) != 2 {
		return pair, fmt.Errorf("%w: want 2 entries, got %d", domain.ErrMalformedRecord, len(raw))
	}
	for i, v := range raw {
		switch e := v.(type) {
		case string:
			pair[i] = e
		case json.Number:
			pair[i] = e.String()
		default:
			return pair, fmt.Errorf("%w: entry %d has type %T", domain.ErrMalformedRecord, i, v)
		}
		if pair[i] == "" {
			return pair, fmt.Errorf("%w: entry %d is empty", domain.ErrMalformedRecord, i)
		}
	}
	return pair, nil
}
