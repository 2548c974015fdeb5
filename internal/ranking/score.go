// Package ranking orders candidate markets for trading.
//
// The composite score standardizes the gm reward and volatility sum across
// the candidate set and adds a bonus for prices sitting in the 0.10-0.25 and
// 0.75-0.90 bands:
//
//	score = z(gm_reward_per_100) - z(volatility_sum) + proximity(bid) + proximity(ask)
//
// A feature with zero or undefined sample deviation standardizes to 0 for
// every record, so it drops out of the score instead of producing NaN.
package ranking

import (
	"math"
	"sort"

	"github.com/alanyoungcy/polyscout/internal/domain"
)

// Proximity scores a price: 1.0 at 0.10 falling linearly to 0 at 0.25, 0 at
// 0.75 rising linearly to 1.0 at 0.90, and 0 everywhere else. The result is
// rounded to 10 decimals so the band edges score exactly 1 and 0.
func Proximity(p float64) float64 {
	switch {
	case p >= 0.10 && p <= 0.25:
		return domain.Round((0.25-p)/0.15, 10)
	case p >= 0.75 && p <= 0.90:
		return domain.Round((p-0.75)/0.15, 10)
	default:
		return 0
	}
}

// Standardize returns the z-scores of xs using the sample (n-1) deviation.
// When the deviation is 0 or xs has fewer than two values all scores are 0.
func Standardize(xs []float64) []float64 {
	z := make([]float64, len(xs))
	mean, std := meanStd(xs)
	if std == 0 || math.IsNaN(std) {
		return z
	}
	for i, x := range xs {
		z[i] = (x - mean) / std
	}
	return z
}

// Score returns the composite score of every record, index-aligned with
// records.
func Score(records []domain.MarketRecord) []float64 {
	gm := make([]float64, len(records))
	vol := make([]float64, len(records))
	for i, r := range records {
		gm[i] = r.GMRewardPer100
		vol[i] = r.VolatilitySum
	}
	zgm, zvol := Standardize(gm), Standardize(vol)

	scores := make([]float64, len(records))
	for i, r := range records {
		scores[i] = zgm[i] - zvol[i] + Proximity(r.BestBid) + Proximity(r.BestAsk)
	}
	return scores
}

// Rank returns a copy of records sorted by composite score, best first.
// Equal scores keep their input order. The score itself is not stored.
func Rank(records []domain.MarketRecord) []domain.MarketRecord {
	if len(records) == 0 {
		return nil
	}
	scores := Score(records)
	idx := make([]int, len(records))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] > scores[idx[b]] })

	out := make([]domain.MarketRecord, len(records))
	for i, j := range idx {
		out[i] = records[j]
	}
	return out
}

func meanStd(xs []float64) (mean, std float64) {
	n := float64(len(xs))
	if n < 2 {
		return 0, 0
	}
	for _, x := range xs {
		mean += x
	}
	mean /= n
	var ss float64
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(ss / (n - 1))
}
