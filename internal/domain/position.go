package domain

// PositionRecord is an open outcome-token position held by the account.
type PositionRecord struct {
	Asset      string  `json:"asset"`
	Size       float64 `json:"size"`
	AvgPrice   float64 `json:"avgPrice"`
	CurPrice   float64 `json:"curPrice"`
	PercentPnl float64 `json:"percentPnl"`
}

// EarningsRecord is the liquidity-reward earnings for one market, joined to
// the account summary by exact question text.
type EarningsRecord struct {
	Question          string  `json:"question"`
	Earnings          float64 `json:"earnings"`
	EarningPercentage float64 `json:"earning_percentage"`
}
