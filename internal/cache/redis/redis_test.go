package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/polyscout/internal/domain"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	c := Wrap(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestNewPings(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	c, err := New(context.Background(), ClientConfig{Addr: mr.Addr(), PoolSize: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	mr.Close()
	if _, err := New(context.Background(), ClientConfig{Addr: mr.Addr()}); err == nil {
		t.Error("New succeeded against a stopped server")
	}
}

func TestLockExclusive(t *testing.T) {
	c, _ := newTestClient(t)
	lm := NewLockManager(c)
	ctx := context.Background()

	unlock, err := lm.Acquire(ctx, "pass:discovery", time.Minute)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := lm.Acquire(ctx, "pass:discovery", time.Minute); !errors.Is(err, domain.ErrLockHeld) {
		t.Fatalf("second Acquire: got %v, want ErrLockHeld", err)
	}
	if _, err := lm.Acquire(ctx, "pass:crypto", time.Minute); err != nil {
		t.Errorf("other key blocked: %v", err)
	}

	unlock()
	unlock()

	again, err := lm.Acquire(ctx, "pass:discovery", time.Minute)
	if err != nil {
		t.Fatalf("Acquire after unlock: %v", err)
	}
	again()
}

func TestLockExpiryAndStaleUnlock(t *testing.T) {
	c, mr := newTestClient(t)
	lm := NewLockManager(c)
	ctx := context.Background()

	stale, err := lm.Acquire(ctx, "pass:reconcile", time.Second)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	mr.FastForward(2 * time.Second)

	unlock, err := lm.Acquire(ctx, "pass:reconcile", time.Minute)
	if err != nil {
		t.Fatalf("Acquire after expiry: %v", err)
	}
	defer unlock()

	stale()
	if !mr.Exists(LockKey("pass:reconcile")) {
		t.Error("expired holder released the new holder's lock")
	}
}

func TestDatasetStore(t *testing.T) {
	c, mr := newTestClient(t)
	s := NewDatasetStore(c, 0)
	s.now = func() time.Time { return time.UnixMilli(1700000000123) }
	ctx := context.Background()

	if _, err := s.Get(ctx, "all_markets.json"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get missing: got %v, want ErrNotFound", err)
	}

	for _, name := range []string{"all_markets.json", "crypto_markets.json"} {
		if err := s.Put(ctx, name, []byte(`[{"question":"q"}]`)); err != nil {
			t.Fatalf("Put %s: %v", name, err)
		}
	}

	got, err := s.Get(ctx, "all_markets.json")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `[{"question":"q"}]` {
		t.Errorf("got %s", got)
	}

	if at := mr.HGet(datasetKey("crypto_markets.json"), "updated_at"); at != "1700000000123" {
		t.Errorf("updated_at = %q, want 1700000000123", at)
	}

	if ttl := mr.TTL(datasetKey("all_markets.json")); ttl != 0 {
		t.Errorf("ttl = %v, want none", ttl)
	}
}

func TestDatasetStoreTTL(t *testing.T) {
	c, mr := newTestClient(t)
	s := NewDatasetStore(c, time.Hour)
	ctx := context.Background()

	if err := s.Put(ctx, "account_summary.json", []byte(`[]`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if ttl := mr.TTL(datasetKey("account_summary.json")); ttl != time.Hour {
		t.Errorf("ttl = %v, want 1h", ttl)
	}

	mr.FastForward(2 * time.Hour)
	if _, err := s.Get(ctx, "account_summary.json"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expired dataset: got %v, want ErrNotFound", err)
	}
}
