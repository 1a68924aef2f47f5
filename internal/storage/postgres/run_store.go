package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"fund-economics-lab/internal/domain"
	"fund-economics-lab/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

const runColumns = `run_id, created_at, scenario_count, waterfall_type, fund_size`

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, r *domain.RunRecord) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO econ_runs (`+runColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		r.RunID, r.CreatedAt, r.ScenarioCount, string(r.WaterfallType), r.FundSize,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.RunRecord, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM econ_runs WHERE run_id = $1`, runID)
	r, err := scanRun(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run by id: %w", err)
	}
	return r, nil
}

// List retrieves runs created within [start, end] (inclusive).
func (s *RunStore) List(ctx context.Context, start, end int64) ([]*domain.RunRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+runColumns+`
		FROM econ_runs
		WHERE created_at >= $1 AND created_at <= $2
		ORDER BY created_at ASC, run_id ASC
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var result []*domain.RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return result, nil
}

func scanRun(row pgx.Row) (*domain.RunRecord, error) {
	var (
		r  domain.RunRecord
		wt string
	)
	if err := row.Scan(&r.RunID, &r.CreatedAt, &r.ScenarioCount, &wt, &r.FundSize); err != nil {
		return nil, err
	}
	r.WaterfallType = domain.WaterfallType(wt)
	return &r, nil
}
