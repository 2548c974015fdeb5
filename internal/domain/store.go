package domain

import (
	"context"
	"time"
)

// Dataset names shared by the discovery, reconciliation and trading tools.
const (
	DatasetSelectedMarkets   = "markets.json"
	DatasetFullMarkets       = "full_markets.json"
	DatasetAllMarkets        = "all_markets.json"
	DatasetVolatilityMarkets = "volatility_markets.json"
	DatasetCryptoMarkets     = "crypto_markets.json"
	DatasetAccountSummary    = "account_summary.json"
	DatasetParams            = "params.json"
)

// DatasetStore is a durable key/value store for named datasets. Get returns
// ErrNotFound when the dataset has never been written.
type DatasetStore interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	Name() string
}

// PassRun is one completed or failed pipeline pass.
type PassRun struct {
	ID         string
	Pass       string
	StartedAt  time.Time
	FinishedAt time.Time
	Records    int
	Err        string
}

// PassAuditStore records pass outcomes.
type PassAuditStore interface {
	RecordRun(ctx context.Context, run PassRun) error
	ListRuns(ctx context.Context, pass string, limit int) ([]PassRun, error)
}
