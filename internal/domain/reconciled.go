package domain

// MatchPath records which catalog token a reconciled row was joined on.
type MatchPath string

const (
	MatchToken1 MatchPath = "token1"
	MatchToken2 MatchPath = "token2"
	MatchNone   MatchPath = "none"
)

// UnknownAnswer is the outcome label used when the matched outcome has no name.
const UnknownAnswer = "Unknown"

// ReconciledRow is the account exposure for one asset id.
type ReconciledRow struct {
	AssetID    string
	Question   string
	Answer     string
	MatchedVia MatchPath

	OrderSize  float64
	OrderSide  string
	OrderPrice float64

	PositionSize float64
	AvgPrice     float64
	CurPrice     float64
	PercentPnl   float64

	Earnings          float64
	EarningPercentage float64

	MarketInSelected bool
}

// SummaryRow is the persisted projection of a ReconciledRow in
// account_summary.json.
type SummaryRow struct {
	Question          string  `json:"question"`
	Answer            string  `json:"answer"`
	OrderSize         float64 `json:"order_size"`
	PositionSize      float64 `json:"position_size"`
	MarketInSelected  bool    `json:"marketInSelected"`
	Earnings          float64 `json:"earnings"`
	EarningPercentage float64 `json:"earning_percentage"`
}
