package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/polyscout/internal/domain"
)

// DatasetStore mirrors datasets into Redis so other services can read the
// latest discovery and account outputs without touching the primary store.
//
// Key schema:
//
//	dataset:{name}  - hash with fields "data" (JSON) and "updated_at" (unix ms)
type DatasetStore struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

// NewDatasetStore creates a DatasetStore. A zero ttl keeps entries until
// they are overwritten.
func NewDatasetStore(c *Client, ttl time.Duration) *DatasetStore {
	return &DatasetStore{rdb: c.rdb, ttl: ttl, now: time.Now}
}

func datasetKey(name string) string { return "dataset:" + name }

// Name implements domain.DatasetStore.
func (d *DatasetStore) Name() string { return "redis" }

// Put stores data and its write time in one transaction.
func (d *DatasetStore) Put(ctx context.Context, name string, data []byte) error {
	key := datasetKey(name)

	pipe := d.rdb.TxPipeline()
	pipe.HSet(ctx, key, "data", data, "updated_at", d.now().UnixMilli())
	if d.ttl > 0 {
		pipe.Expire(ctx, key, d.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: put dataset %s: %w", name, err)
	}
	return nil
}

// Get returns the stored dataset or domain.ErrNotFound.
func (d *DatasetStore) Get(ctx context.Context, name string) ([]byte, error) {
	data, err := d.rdb.HGet(ctx, datasetKey(name), "data").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("redis: get dataset %s: %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("redis: get dataset %s: %w", name, err)
	}
	return data, nil
}

var _ domain.DatasetStore = (*DatasetStore)(nil)
