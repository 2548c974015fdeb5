package discovery

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/alanyoungcy/polyscout/internal/domain"
	"github.com/alanyoungcy/polyscout/internal/platform/polymarket"
)

// annualization scales per-sample log-return deviation to a yearly figure.
var annualization = math.Sqrt(60 * 24 * 252)

// QuadraticScore is the liquidity-reward weight of an order s cents from the
// midpoint when rewards are paid within v cents: ((v-s)/v)^2, 0 outside.
func QuadraticScore(v, s float64) float64 {
	if v <= 0 || s < 0 || s >= v {
		return 0
	}
	r := (v - s) / v
	return r * r
}

// SideRewardPer100 estimates the daily reward earned by $100 of liquidity
// resting at the best in-range price of one side of the book. Half the daily
// budget is attributed to each side, and the share is the order's quadratic
// score against the competing in-range depth.
func SideRewardPer100(levels []domain.PriceLevel, mid, maxSpreadCents, dailyRate, makerReward float64, bid bool) float64 {
	if mid <= 0 || maxSpreadCents <= 0 || dailyRate <= 0 {
		return 0
	}

	price, found := mid, false
	var competing float64
	for _, l := range levels {
		s := math.Abs(mid-l.Price) * 100
		if s >= maxSpreadCents {
			continue
		}
		competing += QuadraticScore(maxSpreadCents, s) * l.Size
		if !found || math.Abs(mid-l.Price) < math.Abs(mid-price) {
			price, found = l.Price, true
		}
	}

	collateral := price
	if !bid {
		collateral = 1 - price
	}
	if collateral <= 0 {
		return 0
	}

	ours := QuadraticScore(maxSpreadCents, math.Abs(mid-price)*100) * (100 / collateral)
	if ours <= 0 {
		return 0
	}
	return domain.Round(dailyRate/2*makerReward*ours/(ours+competing), 2)
}

// ApplyRewards fills the reward-per-100 columns of rec from its token1 book.
func ApplyRewards(rec *domain.MarketRecord, quote domain.BookQuote, makerReward float64) {
	mid := quote.Midpoint()
	rec.BidRewardPer100 = SideRewardPer100(quote.Bids, mid, rec.MaxSpread, rec.RewardsDailyRate, makerReward, true)
	rec.AskRewardPer100 = SideRewardPer100(quote.Asks, mid, rec.MaxSpread, rec.RewardsDailyRate, makerReward, false)
	rec.SMRewardPer100 = domain.Round((rec.BidRewardPer100+rec.AskRewardPer100)/2, 2)
	rec.GMRewardPer100 = domain.Round(math.Sqrt(rec.BidRewardPer100*rec.AskRewardPer100), 2)
}

// AnnualizedVolatility returns the annualized standard deviation of log
// returns over the trailing window ending at the last sample. The first
// return in the window is taken against the sample just before it. Fewer than
// two returns yield 0.
func AnnualizedVolatility(points []polymarket.APIPricePoint, window time.Duration) float64 {
	if len(points) < 2 {
		return 0
	}
	pts := make([]polymarket.APIPricePoint, len(points))
	copy(pts, points)
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].T < pts[j].T })

	start := pts[len(pts)-1].T - int64(window/time.Second)
	var returns []float64
	for i := 1; i < len(pts); i++ {
		if pts[i].T < start || pts[i].P <= 0 || pts[i-1].P <= 0 {
			continue
		}
		returns = append(returns, math.Log(pts[i].P/pts[i-1].P))
	}
	_, std := meanStd(returns)
	return domain.Round(std*annualization, 2)
}

// ApplyVolatility fills the volatility window columns, volatility_sum and the
// volatility/reward ratio of rec.
func ApplyVolatility(rec *domain.MarketRecord, points []polymarket.APIPricePoint) {
	rec.Volatility1Hour = AnnualizedVolatility(points, time.Hour)
	rec.Volatility3Hour = AnnualizedVolatility(points, 3*time.Hour)
	rec.Volatility6Hour = AnnualizedVolatility(points, 6*time.Hour)
	rec.Volatility12Hour = AnnualizedVolatility(points, 12*time.Hour)
	rec.Volatility24Hour = AnnualizedVolatility(points, 24*time.Hour)
	rec.Volatility7Day = AnnualizedVolatility(points, 7*24*time.Hour)
	rec.Volatility14Day = AnnualizedVolatility(points, 14*24*time.Hour)
	rec.Volatility30Day = AnnualizedVolatility(points, 30*24*time.Hour)
	SetVolatilitySum(rec)
}

// SetVolatilitySum derives volatility_sum from the 24h, 7d and 14d windows
// and the gm-reward to volatility ratio, which is "0" when volatility is 0.
func SetVolatilitySum(rec *domain.MarketRecord) {
	rec.VolatilitySum = domain.Round(rec.Volatility24Hour+rec.Volatility7Day+rec.Volatility14Day, 2)
	ratio := 0.0
	if rec.VolatilitySum > 0 {
		ratio = domain.Round(rec.GMRewardPer100/rec.VolatilitySum, 2)
	}
	rec.VolatilityReward = strconv.FormatFloat(ratio, 'f', -1, 64)
}

func meanStd(xs []float64) (mean, std float64) {
	n := float64(len(xs))
	if n == 0 {
		return 0, 0
	}
	for _, x := range xs {
		mean += x
	}
	mean /= n
	if n < 2 {
		return mean, 0
	}
	var ss float64
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(ss / (n - 1))
}
