package datasets

import (
	"errors"
	"testing"

	"github.com/alanyoungcy/polyscout/internal/domain"
)

func TestDecodeMarketsShapes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"envelope", `{"markets": [{"question": "a"}, {"question": "b"}]}`, 2},
		{"bare list", `[{"question": "a"}]`, 1},
		{"empty", ``, 0},
		{"blank questions dropped", `[{"question": ""}, {"question": "x"}]`, 1},
		{"extra columns ignored", `[{"question": "a", "trade_size": "lots", "multiplier": 3}]`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeMarkets([]byte(tt.in))
			if err != nil {
				t.Fatalf("DecodeMarkets: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d rows, want %d", len(got), tt.want)
			}
		})
	}
}

func TestDecodeMarketsTokens(t *testing.T) {
	got, err := DecodeMarkets([]byte(`[
		{"question": "q", "token1": 71321045679252212594626385532706912750332728571942532289631379312455583992563, "token2": null}
	]`))
	if err != nil {
		t.Fatalf("DecodeMarkets: %v", err)
	}
	if got[0].Token1 != "71321045679252212594626385532706912750332728571942532289631379312455583992563" {
		t.Errorf("token1 = %q, want exact digits", got[0].Token1)
	}
	if got[0].Token2 != "" {
		t.Errorf("token2 = %q, want empty", got[0].Token2)
	}
}

func TestDecodeMarketsErrors(t *testing.T) {
	if _, err := DecodeMarkets([]byte(`{"markets": "nope"}`)); err == nil {
		t.Error("expected error for non-list markets")
	}
	_, err := DecodeMarkets([]byte(`[{"question": "q", "token1": true}]`))
	if !errors.Is(err, domain.ErrMalformedRecord) {
		t.Errorf("bool token: got %v, want ErrMalformedRecord", err)
	}
}

func TestMissingParamTypes(t *testing.T) {
	markets := []domain.MarketRecord{
		{ParamType: "default"},
		{ParamType: "wide"},
		{ParamType: "tight"},
		{ParamType: "wide"},
		{ParamType: ""},
	}
	got, err := MissingParamTypes([]byte(`{"default": {}}`), markets)
	if err != nil {
		t.Fatalf("MissingParamTypes: %v", err)
	}
	if len(got) != 2 || got[0] != "tight" || got[1] != "wide" {
		t.Errorf("got %v, want [tight wide]", got)
	}

	if got, _ := MissingParamTypes(nil, markets[:1]); len(got) != 1 {
		t.Errorf("no params: got %v, want [default]", got)
	}
	if _, err := MissingParamTypes([]byte(`[1]`), markets); err == nil {
		t.Error("expected error for non-object params")
	}
}
