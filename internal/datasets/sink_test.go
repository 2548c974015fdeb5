package datasets

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/alanyoungcy/polyscout/internal/domain"
)

// memStore is an in-memory domain.DatasetStore.
type memStore struct {
	mu   sync.Mutex
	name string
	data map[string][]byte
	err  error
}

func newMemStore(name string) *memStore {
	return &memStore{name: name, data: map[string][]byte{}}
}

func (m *memStore) Put(_ context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[name] = append([]byte(nil), data...)
	return nil
}

func (m *memStore) Get(_ context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return d, nil
}

func (m *memStore) Name() string { return m.name }

func newTestSink(primary *memStore, mirrors ...domain.DatasetStore) *Sink {
	return NewSink(primary, mirrors, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestWriteJSONMirrors(t *testing.T) {
	primary, mirror := newMemStore("primary"), newMemStore("mirror")
	s := newTestSink(primary, mirror)

	if err := s.WriteJSON(context.Background(), "all_markets.json", []int{1, 2}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	want := "[\n  1,\n  2\n]"
	if got := string(primary.data["all_markets.json"]); got != want {
		t.Errorf("primary = %q, want %q", got, want)
	}
	if got := string(mirror.data["all_markets.json"]); got != want {
		t.Errorf("mirror = %q, want %q", got, want)
	}
}

func TestWriteMirrorFailureIsNotFatal(t *testing.T) {
	primary, broken := newMemStore("primary"), newMemStore("broken")
	broken.err = errors.New("connection refused")
	s := newTestSink(primary, broken)

	if err := s.Write(context.Background(), "x.json", []byte("{}")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, ok := primary.data["x.json"]; !ok {
		t.Error("primary not written")
	}
}

func TestWritePrimaryFailureIsFatal(t *testing.T) {
	primary, mirror := newMemStore("primary"), newMemStore("mirror")
	primary.err = errors.New("disk full")
	s := newTestSink(primary, mirror)

	if err := s.Write(context.Background(), "x.json", []byte("{}")); err == nil {
		t.Fatal("expected error")
	}
	if len(mirror.data) != 0 {
		t.Error("mirror written despite primary failure")
	}
}

func TestWriteJSONEncodeFailure(t *testing.T) {
	primary := newMemStore("primary")
	s := newTestSink(primary)
	if err := s.WriteJSON(context.Background(), "x.json", make(chan int)); err == nil {
		t.Fatal("expected encode error")
	}
	if len(primary.data) != 0 {
		t.Error("partial dataset written")
	}
}

func TestSelectedMarkets(t *testing.T) {
	primary := newMemStore("primary")
	s := newTestSink(primary)
	ctx := context.Background()

	got, err := s.SelectedMarkets(ctx)
	if err != nil || got != nil {
		t.Fatalf("missing file: got %v, %v; want nil, nil", got, err)
	}

	primary.data[domain.DatasetSelectedMarkets] = []byte(`{"markets": [
		{"question": "Q1", "answer1": "Yes", "answer2": "No", "token1": "1", "token2": 2, "param_type": "mid"},
		{"question": "  ", "token1": "3"}
	]}`)
	got, err = s.SelectedMarkets(ctx)
	if err != nil {
		t.Fatalf("SelectedMarkets: %v", err)
	}
	if len(got) != 1 || got[0].Token2 != "2" || got[0].ParamType != "mid" {
		t.Errorf("got %+v", got)
	}
}

func TestCatalogFallsBackToSelected(t *testing.T) {
	primary := newMemStore("primary")
	primary.data[domain.DatasetSelectedMarkets] = []byte(`[{"question": "selected"}]`)
	s := newTestSink(primary)
	ctx := context.Background()

	got, err := s.Catalog(ctx)
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if len(got) != 1 || got[0].Question != "selected" {
		t.Errorf("missing catalog: got %+v, want the selected set", got)
	}

	primary.data[domain.DatasetFullMarkets] = []byte(`[]`)
	if got, _ := s.Catalog(ctx); len(got) != 1 || got[0].Question != "selected" {
		t.Errorf("empty catalog: got %+v, want the selected set", got)
	}

	primary.data[domain.DatasetFullMarkets] = []byte(`[{"question": "full"}]`)
	if got, _ := s.Catalog(ctx); len(got) != 1 || got[0].Question != "full" {
		t.Errorf("got %+v, want the full catalog", got)
	}
}

func TestParams(t *testing.T) {
	primary := newMemStore("primary")
	s := newTestSink(primary)
	ctx := context.Background()

	if got, err := s.Params(ctx); err != nil || got != nil {
		t.Errorf("missing: got %s, %v", got, err)
	}

	primary.data[domain.DatasetParams] = []byte(`{"default": {"spread": 0.02}}`)
	got, err := s.Params(ctx)
	if err != nil {
		t.Fatalf("Params: %v", err)
	}
	if string(got) != `{"default": {"spread": 0.02}}` {
		t.Errorf("params re-encoded: %s", got)
	}

	primary.data[domain.DatasetParams] = []byte(`{broken`)
	if _, err := s.Params(ctx); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
