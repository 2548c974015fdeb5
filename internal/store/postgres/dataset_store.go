package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/polyscout/internal/domain"
)

// DatasetStore implements domain.DatasetStore as a snapshot table: every Put
// adds a row and Get returns the newest one. When keep is positive only the
// newest keep snapshots per dataset are retained.
type DatasetStore struct {
	pool *pgxpool.Pool
	keep int
}

// NewDatasetStore creates a DatasetStore backed by pool.
func NewDatasetStore(pool *pgxpool.Pool, keep int) *DatasetStore {
	return &DatasetStore{pool: pool, keep: keep}
}

// Name implements domain.DatasetStore.
func (s *DatasetStore) Name() string { return "postgres" }

// Put appends a snapshot. data must be valid JSON.
func (s *DatasetStore) Put(ctx context.Context, name string, data []byte) error {
	const query = `INSERT INTO dataset_snapshots (name, data, size_bytes) VALUES ($1, $2, $3)`
	if _, err := s.pool.Exec(ctx, query, name, data, len(data)); err != nil {
		return fmt.Errorf("postgres: put dataset %s: %w", name, err)
	}
	if s.keep > 0 {
		if _, err := s.Prune(ctx, name, s.keep); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the latest snapshot of name, or domain.ErrNotFound.
func (s *DatasetStore) Get(ctx context.Context, name string) ([]byte, error) {
	const query = `
		SELECT data FROM dataset_snapshots
		WHERE name = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	var data []byte
	if err := s.pool.QueryRow(ctx, query, name).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("postgres: get dataset %s: %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("postgres: get dataset %s: %w", name, err)
	}
	return data, nil
}

// Prune deletes all but the newest keep snapshots of name and returns the
// number of rows removed.
func (s *DatasetStore) Prune(ctx context.Context, name string, keep int) (int64, error) {
	const query = `
		DELETE FROM dataset_snapshots
		WHERE name = $1 AND id NOT IN (
			SELECT id FROM dataset_snapshots
			WHERE name = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		)`
	tag, err := s.pool.Exec(ctx, query, name, keep)
	if err != nil {
		return 0, fmt.Errorf("postgres: prune dataset %s: %w", name, err)
	}
	return tag.RowsAffected(), nil
}

var _ domain.DatasetStore = (*DatasetStore)(nil)
