package reconcile

import "github.com/alanyoungcy/polyscout/internal/domain"

// Summarize projects rows to the persisted account summary, rounding numbers
// to 2 decimal places. Row order is preserved.
func Summarize(rows []domain.ReconciledRow) []domain.SummaryRow {
	out := make([]domain.SummaryRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.SummaryRow{
			Question:          r.Question,
			Answer:            r.Answer,
			OrderSize:         domain.Round(r.OrderSize, 2),
			PositionSize:      domain.Round(r.PositionSize, 2),
			MarketInSelected:  r.MarketInSelected,
			Earnings:          domain.Round(r.Earnings, 2),
			EarningPercentage: domain.Round(r.EarningPercentage, 2),
		})
	}
	return out
}
