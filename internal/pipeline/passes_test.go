package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/alanyoungcy/polyscout/internal/datasets"
	"github.com/alanyoungcy/polyscout/internal/domain"
	"github.com/alanyoungcy/polyscout/internal/reconcile"
)

type fakeBuilder struct {
	records []domain.MarketRecord
	err     error
}

func (f fakeBuilder) Build(context.Context) ([]domain.MarketRecord, error) { return f.records, f.err }

type fakeScanner struct {
	records []domain.MarketRecord
	err     error
}

func (f fakeScanner) Scan(context.Context) ([]domain.MarketRecord, error) { return f.records, f.err }

func catalogOf(n int) []domain.MarketRecord {
	out := make([]domain.MarketRecord, n)
	for i := range out {
		out[i] = domain.MarketRecord{
			Question:         fmt.Sprintf("Market %d?", i),
			Token1:           fmt.Sprintf("t1-%d", i),
			Token2:           fmt.Sprintf("t2-%d", i),
			BestBid:          0.40,
			BestAsk:          0.42,
			GMRewardPer100:   float64(i),
			VolatilitySum:    float64(i * 5),
			RewardsDailyRate: 10,
		}
	}
	return out
}

func TestDiscoveryPassWritesAllDatasets(t *testing.T) {
	sink, fs := newTestSink(t)
	p := NewDiscoveryPass(fakeBuilder{records: catalogOf(6)}, sink, 5, 20, discardLogger())

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Skipped != "" || res.Records != 6 {
		t.Fatalf("result = %+v", res)
	}
	if len(res.Datasets) != 3 {
		t.Errorf("datasets = %v, want 3", res.Datasets)
	}

	var full, all, low []domain.MarketRecord
	readJSON(t, fs, domain.DatasetFullMarkets, &full)
	readJSON(t, fs, domain.DatasetAllMarkets, &all)
	readJSON(t, fs, domain.DatasetVolatilityMarkets, &low)

	if len(full) != 6 || len(all) != 6 {
		t.Errorf("full = %d, all = %d, want 6 each", len(full), len(all))
	}
	// volatility sums are 0,5,10,15,20,25; the cap keeps those under 20.
	if len(low) != 4 {
		t.Errorf("volatility rows = %d, want 4", len(low))
	}
	for _, m := range low {
		if m.VolatilitySum >= 20 {
			t.Errorf("row %q over the cap: %v", m.Question, m.VolatilitySum)
		}
	}
}

func TestDiscoveryPassSkipsSmallCatalog(t *testing.T) {
	sink, fs := newTestSink(t)
	p := NewDiscoveryPass(fakeBuilder{records: catalogOf(5)}, sink, 5, 20, discardLogger())

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(res.Skipped, "only 5 markets") {
		t.Errorf("skipped = %q", res.Skipped)
	}
	if _, err := fs.Get(context.Background(), domain.DatasetFullMarkets); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("full_markets.json written on a skipped pass: %v", err)
	}
}

func TestDiscoveryPassBuildError(t *testing.T) {
	sink, _ := newTestSink(t)
	boom := errors.New("clob down")
	p := NewDiscoveryPass(fakeBuilder{err: boom}, sink, 0, 20, discardLogger())
	if _, err := p.Run(context.Background()); !errors.Is(err, boom) {
		t.Errorf("got %v, want %v", err, boom)
	}
}

func TestCryptoPass(t *testing.T) {
	sink, fs := newTestSink(t)

	res, err := NewCryptoPass(fakeScanner{}, sink).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Skipped == "" {
		t.Error("empty scan should skip")
	}

	markets := []domain.MarketRecord{{Question: "Bitcoin Up or Down?", Recurrence: domain.RecurrenceHourly}}
	res, err = NewCryptoPass(fakeScanner{records: markets}, sink).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Records != 1 {
		t.Errorf("records = %d, want 1", res.Records)
	}
	var got []domain.MarketRecord
	readJSON(t, fs, domain.DatasetCryptoMarkets, &got)
	if len(got) != 1 || got[0].Question != "Bitcoin Up or Down?" {
		t.Errorf("crypto_markets.json = %+v", got)
	}
}

type fakeOrders struct {
	orders []domain.OrderRecord
	err    error
}

func (f fakeOrders) GetOpenOrders(context.Context) ([]domain.OrderRecord, error) {
	return f.orders, f.err
}

type fakePositions struct {
	positions []domain.PositionRecord
	err       error
	address   *string
}

func (f fakePositions) GetPositions(_ context.Context, address string) ([]domain.PositionRecord, error) {
	if f.address != nil {
		*f.address = address
	}
	return f.positions, f.err
}

type fakeEarnings struct {
	earnings []domain.EarningsRecord
	err      error
}

func (f fakeEarnings) GetEarnings(context.Context) ([]domain.EarningsRecord, error) {
	return f.earnings, f.err
}

func newReconcilePass(t *testing.T, src ReconcileSources, failOpen bool) (*ReconcilePass, func(name string, v any)) {
	t.Helper()
	sink, fs := newTestSink(t)
	writeJSON(t, fs, domain.DatasetFullMarkets, []domain.MarketRecord{
		{Question: "Will it rain?", Answer1: "Yes", Answer2: "No", Token1: "rain-yes", Token2: "rain-no"},
		{Question: "Will it snow?", Answer1: "Yes", Answer2: "No", Token1: "snow-yes", Token2: "snow-no"},
	})
	writeJSON(t, fs, domain.DatasetSelectedMarkets, map[string]any{
		"markets": []map[string]any{{"question": "Will it snow?"}},
	})
	if src.Earnings == nil {
		src.Earnings = fakeEarnings{}
	}
	p := NewReconcilePass(src, sink, reconcile.NewEngine(discardLogger()), failOpen, discardLogger())
	return p, func(name string, v any) { readJSON(t, fs, name, v) }
}

func TestReconcilePassWritesSummary(t *testing.T) {
	var addr string
	p, read := newReconcilePass(t, ReconcileSources{
		Orders: fakeOrders{orders: []domain.OrderRecord{
			{AssetID: "rain-no", Side: domain.OrderSideBuy, Size: 10, Price: 0.6},
		}},
		Positions: fakePositions{
			positions: []domain.PositionRecord{{Asset: "snow-yes", Size: 12.345, AvgPrice: 0.3}},
			address:   &addr,
		},
		Earnings: fakeEarnings{earnings: []domain.EarningsRecord{
			{Question: "Will it snow?", Earnings: 1.234, EarningPercentage: 5},
		}},
		Address: "0xabc",
	}, false)

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if addr != "0xabc" {
		t.Errorf("positions address = %q, want 0xabc", addr)
	}
	if res.Records != 2 {
		t.Fatalf("records = %d, want 2", res.Records)
	}

	var rows []domain.SummaryRow
	read(domain.DatasetAccountSummary, &rows)
	if len(rows) != 2 {
		t.Fatalf("rows = %+v", rows)
	}
	// Earnings ordering puts the snow row first.
	snow, rain := rows[0], rows[1]
	if snow.Question != "Will it snow?" || snow.Answer != "Yes" || !snow.MarketInSelected {
		t.Errorf("snow row = %+v", snow)
	}
	if snow.PositionSize != 12.35 || snow.Earnings != 1.23 {
		t.Errorf("snow row not rounded: %+v", snow)
	}
	if rain.Question != "Will it rain?" || rain.Answer != "No" || rain.MarketInSelected || rain.OrderSize != 10 {
		t.Errorf("rain row = %+v", rain)
	}
}

func TestReconcilePassSkipsEmptyAccount(t *testing.T) {
	p, _ := newReconcilePass(t, ReconcileSources{
		Orders:    fakeOrders{},
		Positions: fakePositions{},
	}, false)

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Skipped == "" {
		t.Error("expected a skip")
	}
}

func TestReconcilePassOrdersFailure(t *testing.T) {
	p, _ := newReconcilePass(t, ReconcileSources{
		Orders:    fakeOrders{err: errors.New("401")},
		Positions: fakePositions{},
	}, true)

	_, err := p.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "fetch orders") {
		t.Errorf("got %v, want an orders failure", err)
	}
}

func TestReconcilePassPositionsFailure(t *testing.T) {
	src := ReconcileSources{
		Orders: fakeOrders{orders: []domain.OrderRecord{
			{AssetID: "rain-yes", Side: domain.OrderSideSell, Size: 5, Price: 0.5},
		}},
		Positions: fakePositions{err: errors.New("data-api timeout")},
	}

	p, _ := newReconcilePass(t, src, false)
	if _, err := p.Run(context.Background()); err == nil || !strings.Contains(err.Error(), "fetch positions") {
		t.Errorf("got %v, want a positions failure", err)
	}

	p, read := newReconcilePass(t, src, true)
	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("fail-open Run: %v", err)
	}
	if res.Records != 1 {
		t.Errorf("records = %d, want 1", res.Records)
	}
	var rows []domain.SummaryRow
	read(domain.DatasetAccountSummary, &rows)
	if len(rows) != 1 || rows[0].PositionSize != 0 || rows[0].OrderSize != 5 {
		t.Errorf("rows = %+v", rows)
	}
}

func TestReconcilePassEarningsFailure(t *testing.T) {
	p, _ := newReconcilePass(t, ReconcileSources{
		Orders:    fakeOrders{},
		Positions: fakePositions{positions: []domain.PositionRecord{{Asset: "rain-yes", Size: 3}}},
		Earnings:  fakeEarnings{err: errors.New("rewards 500")},
	}, false)

	_, err := p.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "fetch earnings") {
		t.Errorf("got %v, want an earnings failure", err)
	}
}

// failingStore fails writes of one dataset name.
type failingStore struct {
	domain.DatasetStore
	fail string
}

func (f failingStore) Put(ctx context.Context, name string, data []byte) error {
	if name == f.fail {
		return errors.New("disk full")
	}
	return f.DatasetStore.Put(ctx, name, data)
}

func TestDiscoveryPassPartialWrite(t *testing.T) {
	_, fs := newTestSink(t)
	sink := datasets.NewSink(failingStore{DatasetStore: fs, fail: domain.DatasetVolatilityMarkets}, nil, discardLogger())
	p := NewDiscoveryPass(fakeBuilder{records: catalogOf(3)}, sink, 0, 20, discardLogger())

	res, err := p.Run(context.Background())
	if err == nil {
		t.Fatal("expected the volatility write to fail")
	}
	if len(res.Datasets) != 1 || res.Datasets[0] != domain.DatasetAllMarkets {
		t.Errorf("written = %v, want only %s", res.Datasets, domain.DatasetAllMarkets)
	}
	if _, err := fs.Get(context.Background(), domain.DatasetFullMarkets); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("full_markets.json written after an earlier failure: %v", err)
	}
}
