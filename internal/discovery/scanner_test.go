package discovery

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alanyoungcy/polyscout/internal/domain"
	"github.com/alanyoungcy/polyscout/internal/platform/polymarket"
)

// fakeEvents resolves slugs from a map; unknown slugs are not found.
type fakeEvents struct {
	events map[string]polymarket.APIEvent
	fail   map[string]error
	calls  []string
}

func (f *fakeEvents) GetEventBySlug(_ context.Context, slug string) (polymarket.APIEvent, error) {
	f.calls = append(f.calls, slug)
	if err, ok := f.fail[slug]; ok {
		return polymarket.APIEvent{}, err
	}
	if ev, ok := f.events[slug]; ok {
		return ev, nil
	}
	return polymarket.APIEvent{}, fmt.Errorf("gamma: %s: %w", slug, domain.ErrNotFound)
}

func binaryEvent(t *testing.T, slug, condition, end string) polymarket.APIEvent {
	t.Helper()
	return decodeEvent(t, fmt.Sprintf(`{
		"slug": %q,
		"markets": [{
			"question": %q, "conditionId": %q, "active": true, "endDate": %q,
			"outcomes": "[\"Up\",\"Down\"]", "clobTokenIds": "[\"%s-1\",\"%s-2\"]"
		}]
	}`, slug, slug, condition, end, condition, condition))
}

func TestScannerScan(t *testing.T) {
	now := QuotingTime(2026, time.January, 31, 14, 30)
	daily := DailySlug("xrp", now)
	h2 := HourlySlug("bitcoin", QuotingTime(2026, time.January, 31, 14, 0))
	h3 := HourlySlug("bitcoin", QuotingTime(2026, time.January, 31, 15, 0))

	events := &fakeEvents{
		events: map[string]polymarket.APIEvent{
			daily: binaryEvent(t, daily, "0xd", "2026-02-01T05:00:00Z"),
			h3:    binaryEvent(t, h3, "0xh3", "2026-01-31T21:00:00Z"),
			h2:    binaryEvent(t, h2, "0xh2", "2026-01-31T20:00:00Z"),
		},
		fail: map[string]error{
			HourlySlug("bitcoin", QuotingTime(2026, time.January, 31, 16, 0)): errors.New("boom"),
		},
	}
	plan := []ScanTarget{
		{Asset: "xrp", Recurrence: domain.RecurrenceDaily, Horizon: 24 * time.Hour},
		{Asset: "bitcoin", Recurrence: domain.RecurrenceHourly, Horizon: 3 * time.Hour},
	}
	s := NewScanner(events, NewNormalizer(&fakeBooks{}, discardLogger()), plan, 0, discardLogger())
	s.now = func() time.Time { return now }

	got, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	want := []string{"0xh2", "0xh3", "0xd"}
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ConditionID != id {
			t.Errorf("record %d = %s, want %s", i, got[i].ConditionID, id)
		}
	}
	if got[2].Recurrence != domain.RecurrenceDaily {
		t.Errorf("daily record recurrence = %q", got[2].Recurrence)
	}
	if len(events.calls) != 4 {
		t.Errorf("made %d lookups, want 4", len(events.calls))
	}
}

func TestScannerDedupsAcrossTargets(t *testing.T) {
	now := QuotingTime(2026, time.March, 1, 9, 0)
	slug := HourlySlug("bitcoin", now)
	events := &fakeEvents{events: map[string]polymarket.APIEvent{
		slug: binaryEvent(t, slug, "0xsame", "2026-03-01T15:00:00Z"),
	}}
	plan := []ScanTarget{
		{Asset: "bitcoin", Recurrence: domain.RecurrenceHourly, Horizon: time.Hour},
		{Asset: "bitcoin", Recurrence: domain.RecurrenceHourly, Horizon: time.Hour},
	}
	s := NewScanner(events, NewNormalizer(&fakeBooks{}, discardLogger()), plan, 0, discardLogger())
	s.now = func() time.Time { return now }

	got, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d records, want 1", len(got))
	}
}

func TestScannerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	plan := []ScanTarget{{Asset: "bitcoin", Recurrence: domain.RecurrenceHourly, Horizon: 5 * time.Hour}}
	s := NewScanner(&fakeEvents{}, NewNormalizer(&fakeBooks{}, discardLogger()), plan, time.Second, discardLogger())

	if _, err := s.Scan(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestSortRecurring(t *testing.T) {
	recs := []domain.MarketRecord{
		{Question: "d2", Recurrence: domain.RecurrenceDaily, EndDate: "2026-01-02"},
		{Question: "n", Recurrence: domain.RecurrenceUnknown, EndDate: "2026-01-01"},
		{Question: "q", Recurrence: domain.RecurrenceQuarter, EndDate: "2026-01-05"},
		{Question: "d1", Recurrence: domain.RecurrenceDaily, EndDate: "2026-01-01"},
		{Question: "h", Recurrence: domain.RecurrenceHourly, EndDate: "2026-01-09"},
	}
	SortRecurring(recs)

	want := []string{"h", "q", "d1", "d2", "n"}
	for i, q := range want {
		if recs[i].Question != q {
			t.Errorf("position %d = %s, want %s", i, recs[i].Question, q)
		}
	}
}
