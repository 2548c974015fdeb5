package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/polyscout/internal/domain"
)

// PassRunStore implements domain.PassAuditStore on the pass_runs table.
type PassRunStore struct {
	pool *pgxpool.Pool
}

// NewPassRunStore creates a PassRunStore backed by pool.
func NewPassRunStore(pool *pgxpool.Pool) *PassRunStore {
	return &PassRunStore{pool: pool}
}

// RecordRun inserts run, assigning an id when it has none.
func (s *PassRunStore) RecordRun(ctx context.Context, run domain.PassRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	const query = `
		INSERT INTO pass_runs (id, pass, started_at, finished_at, records, error)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.pool.Exec(ctx, query, run.ID, run.Pass, run.StartedAt, run.FinishedAt, run.Records, run.Err)
	if err != nil {
		return fmt.Errorf("postgres: record %s run: %w", run.Pass, err)
	}
	return nil
}

// ListRuns returns the most recent runs of pass, newest first. An empty pass
// lists every pass.
func (s *PassRunStore) ListRuns(ctx context.Context, pass string, limit int) ([]domain.PassRun, error) {
	query := `SELECT id::text, pass, started_at, finished_at, records, error FROM pass_runs`
	args := []any{}
	if pass != "" {
		query += ` WHERE pass = $1`
		args = append(args, pass)
	}
	query += ` ORDER BY started_at DESC`
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.PassRun
	for rows.Next() {
		var r domain.PassRun
		if err := rows.Scan(&r.ID, &r.Pass, &r.StartedAt, &r.FinishedAt, &r.Records, &r.Err); err != nil {
			return nil, fmt.Errorf("postgres: scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list runs rows: %w", err)
	}
	return runs, nil
}

var _ domain.PassAuditStore = (*PassRunStore)(nil)
