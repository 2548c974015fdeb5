package domain

// Recurrence is the periodicity family a recurring market belongs to.
type Recurrence string

const (
	RecurrenceHourly  Recurrence = "hourly"
	RecurrenceQuarter Recurrence = "15m"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceNone    Recurrence = "none"

	// RecurrenceUnknown is used when the catalog event carries no series.
	RecurrenceUnknown Recurrence = "unknown"
)

// Order returns the sort rank used when laying out recurring-market
// datasets: hourly first, then quarter-hourly, then daily, then the rest.
func (r Recurrence) Order() int {
	switch r {
	case RecurrenceHourly:
		return 0
	case RecurrenceQuarter:
		return 1
	case RecurrenceDaily:
		return 2
	default:
		return 99
	}
}

// MarketRecord is the canonical row written to the market datasets. The JSON
// names are the dataset column names consumed by the trading tools, including
// the historical "volatilty/reward" spelling.
type MarketRecord struct {
	Question string  `json:"question"`
	Answer1  string  `json:"answer1"`
	Answer2  string  `json:"answer2"`
	Spread   float64 `json:"spread"`

	RewardsDailyRate float64 `json:"rewards_daily_rate"`
	GMRewardPer100   float64 `json:"gm_reward_per_100"`
	SMRewardPer100   float64 `json:"sm_reward_per_100"`
	BidRewardPer100  float64 `json:"bid_reward_per_100"`
	AskRewardPer100  float64 `json:"ask_reward_per_100"`

	VolatilitySum    float64 `json:"volatility_sum"`
	VolatilityReward string  `json:"volatilty/reward"`
	MinSize          float64 `json:"min_size"`

	Volatility1Hour  float64 `json:"1_hour"`
	Volatility3Hour  float64 `json:"3_hour"`
	Volatility6Hour  float64 `json:"6_hour"`
	Volatility12Hour float64 `json:"12_hour"`
	Volatility24Hour float64 `json:"24_hour"`
	Volatility7Day   float64 `json:"7_day"`
	Volatility14Day  float64 `json:"14_day"`
	Volatility30Day  float64 `json:"30_day"`

	BestBid         float64 `json:"best_bid"`
	BestAsk         float64 `json:"best_ask"`
	VolatilityPrice float64 `json:"volatility_price"`
	MaxSpread       float64 `json:"max_spread"`
	TickSize        float64 `json:"tick_size"`
	NegRisk         bool    `json:"neg_risk"`
	MarketSlug      string  `json:"market_slug"`
	Token1          string  `json:"token1"`
	Token2          string  `json:"token2"`
	ConditionID     string  `json:"condition_id"`

	// Default trading parameters so rows can be copied into markets.json.
	TradeSize  float64 `json:"trade_size"`
	MaxSize    float64 `json:"max_size"`
	ParamType  string  `json:"param_type"`
	Multiplier string  `json:"multiplier"`

	// Recurring-feed metadata.
	SeriesSlug string     `json:"series_slug,omitempty"`
	Recurrence Recurrence `json:"recurrence,omitempty"`
	EndDate    string     `json:"end_date,omitempty"`
	Volume24hr float64    `json:"volume_24hr,omitempty"`
}

// Default trading parameters attached to every discovered market.
const (
	DefaultTradeSize = 25
	DefaultMaxSize   = 100
	DefaultParamType = "default"
)

// WithDefaultTradeParams returns m with the default trading parameters set.
func (m MarketRecord) WithDefaultTradeParams() MarketRecord {
	m.TradeSize = DefaultTradeSize
	m.MaxSize = DefaultMaxSize
	m.ParamType = DefaultParamType
	m.Multiplier = ""
	return m
}
