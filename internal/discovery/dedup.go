package discovery

import "github.com/alanyoungcy/polyscout/internal/domain"

// Dedup keeps the first record for each condition id, preserving input
// order. It never modifies its input.
func Dedup(records []domain.MarketRecord) []domain.MarketRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]domain.MarketRecord, 0, len(records))
	for _, r := range records {
		if _, dup := seen[r.ConditionID]; dup {
			continue
		}
		seen[r.ConditionID] = struct{}{}
		out = append(out, r)
	}
	return out
}
