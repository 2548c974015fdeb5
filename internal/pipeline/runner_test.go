package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alanyoungcy/polyscout/internal/domain"
	"github.com/alanyoungcy/polyscout/internal/notify"
)

type countingSender struct {
	titles []string
}

func (c *countingSender) Send(_ context.Context, title, _ string) error {
	c.titles = append(c.titles, title)
	return nil
}

func (c *countingSender) Name() string { return "counting" }

func TestRunOnceRecordsAndNotifies(t *testing.T) {
	audit := &fakeAudit{}
	sender := &countingSender{}
	r := NewRunner(&fakeLock{}, time.Minute, audit, notify.NewNotifier([]notify.Sender{sender}, nil, discardLogger()), discardLogger())

	p := funcPass{name: "discovery", run: func(context.Context) (Result, error) {
		return Result{Records: 3, Datasets: []string{"a.json", "b.json"}}, nil
	}}
	res, err := r.RunOnce(context.Background(), p)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if res.Records != 3 {
		t.Errorf("records = %d, want 3", res.Records)
	}
	if len(audit.runs) != 1 || audit.runs[0].Pass != "discovery" || audit.runs[0].Err != "" || audit.runs[0].ID == "" {
		t.Errorf("audit = %+v", audit.runs)
	}
	if len(sender.titles) != 2 {
		t.Errorf("notifications = %v, want one per dataset", sender.titles)
	}
}

func TestRunOnceFailure(t *testing.T) {
	audit := &fakeAudit{}
	r := NewRunner(nil, 0, audit, nil, discardLogger())

	boom := errors.New("earnings endpoint down")
	_, err := r.RunOnce(context.Background(), funcPass{name: "reconcile", run: func(context.Context) (Result, error) {
		return Result{}, boom
	}})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want wrapped pass error", err)
	}
	if len(audit.runs) != 1 || audit.runs[0].Err == "" {
		t.Errorf("failed run not audited: %+v", audit.runs)
	}
}

func TestRunOnceLocked(t *testing.T) {
	lock := &fakeLock{held: map[string]bool{"pass:crypto": true}}
	r := NewRunner(lock, time.Minute, nil, nil, discardLogger())

	ran := false
	_, err := r.RunOnce(context.Background(), funcPass{name: "crypto", run: func(context.Context) (Result, error) {
		ran = true
		return Result{}, nil
	}})
	if !errors.Is(err, ErrPassLocked) {
		t.Errorf("got %v, want ErrPassLocked", err)
	}
	if ran {
		t.Error("pass ran without the lock")
	}
}

func TestRunOnceLockError(t *testing.T) {
	r := NewRunner(&fakeLock{err: errors.New("redis down")}, time.Minute, nil, nil, discardLogger())
	_, err := r.RunOnce(context.Background(), funcPass{name: "crypto", run: func(context.Context) (Result, error) {
		return Result{}, nil
	}})
	if err == nil || errors.Is(err, ErrPassLocked) {
		t.Errorf("got %v, want a lock failure", err)
	}
}

func TestRunOnceReleasesLock(t *testing.T) {
	lock := &fakeLock{}
	r := NewRunner(lock, time.Minute, nil, nil, discardLogger())
	p := funcPass{name: "discovery", run: func(context.Context) (Result, error) { return Result{}, errors.New("x") }}

	_, _ = r.RunOnce(context.Background(), p)
	if lock.held["pass:discovery"] {
		t.Error("lock still held after a failed run")
	}
}

func TestLoopRetriesAfterFailure(t *testing.T) {
	sender := &countingSender{}
	r := NewRunner(nil, 0, nil, notify.NewNotifier([]notify.Sender{sender}, []string{notify.EventPassFailed}, discardLogger()), discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	p := funcPass{name: "discovery", run: func(context.Context) (Result, error) {
		if calls.Add(1) >= 3 {
			cancel()
			return Result{}, nil
		}
		return Result{}, errors.New("transient")
	}}

	err := r.Loop(ctx, p, Schedule{Interval: time.Hour, RetryInterval: time.Millisecond})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("ran %d times, want 3", n)
	}
	if len(sender.titles) != 2 {
		t.Errorf("failure notifications = %d, want 2", len(sender.titles))
	}
}

func TestOrchestratorRunOnce(t *testing.T) {
	lock := &fakeLock{held: map[string]bool{"pass:locked": true}}
	r := NewRunner(lock, time.Minute, nil, nil, discardLogger())

	var order []string
	mk := func(name string, err error) Scheduled {
		return Scheduled{Pass: funcPass{name: name, run: func(context.Context) (Result, error) {
			order = append(order, name)
			return Result{}, err
		}}}
	}
	o := NewOrchestrator(r, []Scheduled{
		mk("discovery", nil),
		mk("locked", nil),
		mk("crypto", errors.New("gamma down")),
		mk("reconcile", nil),
	}, discardLogger())

	err := o.RunOnce(context.Background())
	if err == nil {
		t.Fatal("expected the crypto failure")
	}
	want := []string{"discovery", "crypto", "reconcile"}
	if len(order) != len(want) {
		t.Fatalf("ran %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("ran %v, want %v", order, want)
			break
		}
	}
}

func TestOrchestratorRunStopsOnCancel(t *testing.T) {
	r := NewRunner(nil, 0, nil, nil, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())

	var runs atomic.Int32
	p := funcPass{name: "crypto", run: func(context.Context) (Result, error) {
		runs.Add(1)
		cancel()
		return Result{Skipped: "nothing"}, nil
	}}
	o := NewOrchestrator(r, []Scheduled{{Pass: p, Schedule: Schedule{Interval: time.Hour, RetryInterval: time.Hour}}}, discardLogger())

	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("orchestrator did not stop")
	}
	if runs.Load() != 1 {
		t.Errorf("runs = %d, want 1", runs.Load())
	}
}

var _ domain.PassAuditStore = (*fakeAudit)(nil)
