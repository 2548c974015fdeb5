package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/alanyoungcy/polyscout/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// flexFloat unmarshals from a JSON number, a numeric string, or null. The
// CLOB sends prices and sizes as strings; Gamma sends most numbers as numbers.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(n)
	return nil
}

// --------------------------------------------------------------------------
// Gamma API DTOs
// --------------------------------------------------------------------------

// APIEvent is an event from the Gamma API. It groups one or more markets and
// carries the series metadata shared by them.
type APIEvent struct {
	ID      string      `json:"id"`
	Title   string      `json:"title"`
	Slug    string      `json:"slug"`
	Active  flexBool    `json:"active"`
	Closed  flexBool    `json:"closed"`
	Markets []APIMarket `json:"markets"`
	Series  []APISeries `json:"series"`
}

// APISeries is the recurring-series descriptor attached to an event.
type APISeries struct {
	Slug       string `json:"slug"`
	Recurrence string `json:"recurrence"`
}

// APIMarket is a market nested inside a Gamma event.
type APIMarket struct {
	Question              string    `json:"question"`
	ConditionID           string    `json:"conditionId"`
	Slug                  string    `json:"slug"`
	Active                flexBool  `json:"active"`
	Closed                flexBool  `json:"closed"`
	Outcomes              string    `json:"outcomes"`     // JSON-encoded: "[\"Up\",\"Down\"]"
	ClobTokenIDs          string    `json:"clobTokenIds"` // JSON-encoded: "[\"123\",\"456\"]"
	OrderMinSize          flexFloat `json:"orderMinSize"`
	OrderPriceMinTickSize flexFloat `json:"orderPriceMinTickSize"`
	NegRisk               flexBool  `json:"negRisk"`
	EndDate               string    `json:"endDate"`
	Volume24hr            flexFloat `json:"volume24hr"`
}

// --------------------------------------------------------------------------
// CLOB API DTOs
// --------------------------------------------------------------------------

// APIBook is the response of GET /book.
type APIBook struct {
	AssetID string     `json:"asset_id"`
	Bids    []APILevel `json:"bids"`
	Asks    []APILevel `json:"asks"`
}

// APILevel is one price level of an APIBook.
type APILevel struct {
	Price flexFloat `json:"price"`
	Size  flexFloat `json:"size"`
}

// ToQuote reduces a book to its best bid (max bid price) and best ask (min
// ask price).
func (b *APIBook) ToQuote(tokenID string) domain.BookQuote {
	q := domain.BookQuote{TokenID: tokenID, Status: domain.BookEmpty}
	for _, lvl := range b.Bids {
		p := float64(lvl.Price)
		q.Bids = append(q.Bids, domain.PriceLevel{Price: p, Size: float64(lvl.Size)})
		if p > q.BestBid {
			q.BestBid = p
		}
	}
	for _, lvl := range b.Asks {
		p := float64(lvl.Price)
		q.Asks = append(q.Asks, domain.PriceLevel{Price: p, Size: float64(lvl.Size)})
		if q.BestAsk == 0 || p < q.BestAsk {
			q.BestAsk = p
		}
	}
	if len(q.Bids) > 0 || len(q.Asks) > 0 {
		q.Status = domain.BookOK
	}
	return q
}

// APISamplingPage is one page of GET /sampling-markets.
type APISamplingPage struct {
	Data       []APISamplingMarket `json:"data"`
	NextCursor string              `json:"next_cursor"`
}

// APISamplingMarket is a reward-eligible market from the CLOB.
type APISamplingMarket struct {
	ConditionID      string     `json:"condition_id"`
	Question         string     `json:"question"`
	MarketSlug       string     `json:"market_slug"`
	Active           bool       `json:"active"`
	Closed           bool       `json:"closed"`
	NegRisk          bool       `json:"neg_risk"`
	MinimumOrderSize flexFloat  `json:"minimum_order_size"`
	MinimumTickSize  flexFloat  `json:"minimum_tick_size"`
	EndDateISO       string     `json:"end_date_iso"`
	Tokens           []APIToken `json:"tokens"`
	Rewards          APIRewards `json:"rewards"`
}

// APIToken is one outcome token of a sampling market.
type APIToken struct {
	TokenID string    `json:"token_id"`
	Outcome string    `json:"outcome"`
	Price   flexFloat `json:"price"`
}

// APIRewards is the liquidity-reward configuration of a sampling market.
type APIRewards struct {
	MinSize   flexFloat       `json:"min_size"`
	MaxSpread flexFloat       `json:"max_spread"`
	Rates     []APIRewardRate `json:"rates"`
}

// APIRewardRate is the daily reward budget paid in one asset.
type APIRewardRate struct {
	AssetAddress     string    `json:"asset_address"`
	RewardsDailyRate flexFloat `json:"rewards_daily_rate"`
}

// APIPriceHistory is the response of GET /prices-history.
type APIPriceHistory struct {
	History []APIPricePoint `json:"history"`
}

// APIPricePoint is a (unix seconds, price) sample.
type APIPricePoint struct {
	T int64   `json:"t"`
	P float64 `json:"p"`
}

// APIOrder is an open order as returned by GET /data/orders.
type APIOrder struct {
	ID           string    `json:"id"`
	AssetID      string    `json:"asset_id"`
	Side         string    `json:"side"`
	OriginalSize flexFloat `json:"original_size"`
	SizeMatched  flexFloat `json:"size_matched"`
	Price        flexFloat `json:"price"`
}

// ToDomainOrder converts an APIOrder to a domain.OrderRecord with the
// remaining unfilled size.
func (a *APIOrder) ToDomainOrder() domain.OrderRecord {
	return domain.OrderRecord{
		AssetID: a.AssetID,
		Side:    domain.OrderSide(strings.ToUpper(a.Side)),
		Size:    domain.RemainingSize(float64(a.OriginalSize), float64(a.SizeMatched)),
		Price:   float64(a.Price),
	}
}

// apiOrdersPage is one page of GET /data/orders.
type apiOrdersPage struct {
	Data       []APIOrder `json:"data"`
	NextCursor string     `json:"next_cursor"`
}

// --------------------------------------------------------------------------
// Data API and rewards DTOs
// --------------------------------------------------------------------------

// APIPosition is a position from the data API /positions endpoint.
type APIPosition struct {
	Asset      string    `json:"asset"`
	Size       flexFloat `json:"size"`
	AvgPrice   flexFloat `json:"avgPrice"`
	CurPrice   flexFloat `json:"curPrice"`
	PercentPnl flexFloat `json:"percentPnl"`
}

// ToDomainPosition converts an APIPosition to a domain.PositionRecord.
func (p *APIPosition) ToDomainPosition() domain.PositionRecord {
	return domain.PositionRecord{
		Asset:      p.Asset,
		Size:       float64(p.Size),
		AvgPrice:   float64(p.AvgPrice),
		CurPrice:   float64(p.CurPrice),
		PercentPnl: float64(p.PercentPnl),
	}
}

// apiEarningsPage is one page of the rewards markets endpoint.
type apiEarningsPage struct {
	Data       []APIEarningsMarket `json:"data"`
	NextCursor string              `json:"next_cursor"`
}

// APIEarningsMarket is per-market reward earnings split by sub-period.
type APIEarningsMarket struct {
	Question          string              `json:"question"`
	Earnings          []APIEarningsPeriod `json:"earnings"`
	EarningPercentage flexFloat           `json:"earning_percentage"`
}

// APIEarningsPeriod is the earnings of one sub-period.
type APIEarningsPeriod struct {
	Earnings flexFloat `json:"earnings"`
}

// ToDomainEarnings converts to a domain.EarningsRecord using only the first
// sub-period.
func (e *APIEarningsMarket) ToDomainEarnings() domain.EarningsRecord {
	rec := domain.EarningsRecord{
		Question:          e.Question,
		EarningPercentage: float64(e.EarningPercentage),
	}
	if len(e.Earnings) > 0 {
		rec.Earnings = float64(e.Earnings[0].Earnings)
	}
	return rec
}
