package polymarket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type staticSigner struct {
	err error
}

func (s staticSigner) L2Headers(_ context.Context, method, path string) (map[string]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return map[string]string{"POLY_API_KEY": "k", "POLY_PATH": method + " " + path}, nil
}

func TestGetEarnings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var headers map[string]string
		if err := json.Unmarshal([]byte(q.Get("l2Headers")), &headers); err != nil || headers["POLY_PATH"] != "GET /rewards/user/markets" {
			t.Errorf("l2Headers = %q", q.Get("l2Headers"))
		}
		if q.Get("makerAddress") != "0xmaker" || q.Get("requestPath") != "/rewards/user/markets" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		switch q.Get("nextCursor") {
		case "":
			w.Write([]byte(`{"data": [
				{"question": "A", "earnings": [{"earnings": 10.5}, {"earnings": 99}], "earning_percentage": 12},
				{"question": "zero", "earnings": [{"earnings": 0}]}
			], "next_cursor": "p2"}`))
		case "p2":
			w.Write([]byte(`{"data": [
				{"question": "B", "earnings": [{"earnings": "2.25"}], "earning_percentage": "3.5"},
				{"question": "none", "earnings": []}
			], "next_cursor": "LTE="}`))
		}
	}))
	defer srv.Close()

	got, err := NewRewardsClient(srv.URL, "0xmaker", staticSigner{}).GetEarnings(context.Background())
	if err != nil {
		t.Fatalf("GetEarnings: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(got), got)
	}
	if got[0].Question != "A" || got[0].Earnings != 10.5 || got[0].EarningPercentage != 12 {
		t.Errorf("record 0 = %+v", got[0])
	}
	if got[1].Question != "B" || got[1].Earnings != 2.25 {
		t.Errorf("record 1 = %+v", got[1])
	}
}

func TestGetEarningsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := NewRewardsClient(srv.URL, "0xmaker", staticSigner{}).GetEarnings(context.Background()); err == nil {
		t.Error("server error swallowed")
	}
	signErr := errors.New("no key")
	if _, err := NewRewardsClient(srv.URL, "0xmaker", staticSigner{err: signErr}).GetEarnings(context.Background()); !errors.Is(err, signErr) {
		t.Errorf("got %v, want signing error", err)
	}
	if _, err := NewRewardsClient(srv.URL, "", staticSigner{}).GetEarnings(context.Background()); err == nil {
		t.Error("empty maker address accepted")
	}
}
