package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alanyoungcy/polyscout/internal/datasets"
	"github.com/alanyoungcy/polyscout/internal/domain"
	"github.com/alanyoungcy/polyscout/internal/store/file"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestSink returns a sink over a temp-dir file store.
func newTestSink(t *testing.T) (*datasets.Sink, *file.Store) {
	t.Helper()
	fs, err := file.New(t.TempDir())
	if err != nil {
		t.Fatalf("file.New: %v", err)
	}
	return datasets.NewSink(fs, nil, discardLogger()), fs
}

func readJSON(t *testing.T, fs *file.Store, name string, v any) {
	t.Helper()
	data, err := fs.Get(context.Background(), name)
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode %s: %v", name, err)
	}
}

func writeJSON(t *testing.T, fs *file.Store, name string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("encode %s: %v", name, err)
	}
	if err := fs.Put(context.Background(), name, data); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

// fakeLock is an in-process domain.LockManager.
type fakeLock struct {
	mu   sync.Mutex
	held map[string]bool
	err  error
}

func (f *fakeLock) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.held == nil {
		f.held = map[string]bool{}
	}
	if f.held[key] {
		return nil, domain.ErrLockHeld
	}
	f.held[key] = true
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.held, key)
	}, nil
}

// fakeAudit records pass runs in memory.
type fakeAudit struct {
	mu   sync.Mutex
	runs []domain.PassRun
}

func (f *fakeAudit) RecordRun(_ context.Context, run domain.PassRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeAudit) ListRuns(_ context.Context, pass string, _ int) ([]domain.PassRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.PassRun
	for _, r := range f.runs {
		if pass == "" || r.Pass == pass {
			out = append(out, r)
		}
	}
	return out, nil
}

// funcPass adapts a function to Pass.
type funcPass struct {
	name string
	run  func(ctx context.Context) (Result, error)
}

func (p funcPass) Name() string                            { return p.name }
func (p funcPass) Run(ctx context.Context) (Result, error) { return p.run(ctx) }
