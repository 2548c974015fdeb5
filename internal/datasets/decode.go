package datasets

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alanyoungcy/polyscout/internal/domain"
)

// marketRow holds the columns read back from market datasets. Other columns
// are ignored so hand-edited files with odd types still load, and token ids
// may be JSON numbers.
type marketRow struct {
	Question  string          `json:"question"`
	Answer1   string          `json:"answer1"`
	Answer2   string          `json:"answer2"`
	Token1    json.RawMessage `json:"token1"`
	Token2    json.RawMessage `json:"token2"`
	ParamType string          `json:"param_type"`
}

// DecodeMarkets parses a market dataset in either the {"markets": [...]}
// envelope or a bare list, filling the question, answer, token and
// param_type columns. Rows with a blank question are dropped.
func DecodeMarkets(data []byte) ([]domain.MarketRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var rows []marketRow
	if trimmed[0] == '{' {
		var envelope struct {
			Markets []marketRow `json:"markets"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, err
		}
		rows = envelope.Markets
	} else if err := json.Unmarshal(trimmed, &rows); err != nil {
		return nil, err
	}

	out := make([]domain.MarketRecord, 0, len(rows))
	for i, r := range rows {
		if strings.TrimSpace(r.Question) == "" {
			continue
		}
		rec := domain.MarketRecord{
			Question:  r.Question,
			Answer1:   r.Answer1,
			Answer2:   r.Answer2,
			ParamType: r.ParamType,
		}
		var err error
		if rec.Token1, err = tokenString(r.Token1); err != nil {
			return nil, fmt.Errorf("row %d token1: %w", i, err)
		}
		if rec.Token2, err = tokenString(r.Token2); err != nil {
			return nil, fmt.Errorf("row %d token2: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func tokenString(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrMalformedRecord, raw)
	}
	return n.String(), nil
}
