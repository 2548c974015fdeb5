package ranking

import (
	"sort"

	"github.com/alanyoungcy/polyscout/internal/domain"
)

// DefaultVolatilityCap is the volatility_sum below which a market is listed
// in the low-volatility dataset.
const DefaultVolatilityCap = 20

// LowVolatility returns the records with volatility_sum below limit, sorted
// by gm reward per 100 descending. Ties keep input order.
func LowVolatility(records []domain.MarketRecord, limit float64) []domain.MarketRecord {
	var out []domain.MarketRecord
	for _, r := range records {
		if r.VolatilitySum < limit {
			out = append(out, r)
		}
	}
	ByRewardDesc(out)
	return out
}

// ByRewardDesc sorts records in place by gm reward per 100, highest first.
func ByRewardDesc(records []domain.MarketRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].GMRewardPer100 > records[j].GMRewardPer100
	})
}
