package datasets

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/alanyoungcy/polyscout/internal/domain"
)

// MissingParamTypes returns the distinct param_type values used by markets
// that have no top-level key in params, sorted. params itself is never
// modified or re-encoded.
func MissingParamTypes(params json.RawMessage, markets []domain.MarketRecord) ([]string, error) {
	keys := map[string]json.RawMessage{}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &keys); err != nil {
			return nil, fmt.Errorf("datasets: %s must be an object: %w", domain.DatasetParams, err)
		}
	}

	missing := map[string]struct{}{}
	for _, m := range markets {
		if m.ParamType == "" {
			continue
		}
		if _, ok := keys[m.ParamType]; !ok {
			missing[m.ParamType] = struct{}{}
		}
	}

	out := make([]string, 0, len(missing))
	for k := range missing {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}
