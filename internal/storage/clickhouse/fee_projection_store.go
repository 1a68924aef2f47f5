package clickhouse

import (
	"context"
	"fmt"

	"fund-economics-lab/internal/domain"
	"fund-economics-lab/internal/storage"
)

// FeeProjectionStore implements storage.FeeProjectionStore using ClickHouse.
type FeeProjectionStore struct {
	conn *Conn
}

// NewFeeProjectionStore creates a new FeeProjectionStore.
func NewFeeProjectionStore(conn *Conn) *FeeProjectionStore {
	return &FeeProjectionStore{conn: conn}
}

// Compile-time interface check.
var _ storage.FeeProjectionStore = (*FeeProjectionStore)(nil)

// InsertBulk adds multiple rows. Fails entire batch on any duplicate (run_id, year).
// MergeTree does not enforce keys, so duplicates are checked before the batch is sent.
func (s *FeeProjectionStore) InsertBulk(ctx context.Context, rows []*domain.FeeProjectionRow) error {
	if len(rows) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if r == nil || r.RunID == "" || r.Year < 1 {
			return storage.ErrInvalidInput
		}
		key := fmt.Sprintf("%s|%d", r.RunID, r.Year)
		if _, exists := seen[key]; exists {
			return storage.ErrDuplicateKey
		}
		seen[key] = struct{}{}
	}

	for _, r := range rows {
		exists, err := s.exists(ctx, r.RunID, r.Year)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO fee_projections (run_id, year, rate, fee, basis)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range rows {
		if err := batch.Append(r.RunID, int32(r.Year), r.Rate, r.Fee, string(r.Basis)); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByRunID retrieves all rows of a run, ordered by year ASC.
func (s *FeeProjectionStore) GetByRunID(ctx context.Context, runID string) ([]*domain.FeeProjectionRow, error) {
	query := `
		SELECT run_id, year, rate, fee, basis
		FROM fee_projections
		WHERE run_id = ?
		ORDER BY year ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query fee projections: %w", err)
	}
	defer rows.Close()

	return scanFeeProjections(rows)
}

func (s *FeeProjectionStore) exists(ctx context.Context, runID string, year int) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx,
		`SELECT count(*) FROM fee_projections WHERE run_id = ? AND year = ?`,
		runID, int32(year),
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func scanFeeProjections(rows chRows) ([]*domain.FeeProjectionRow, error) {
	var result []*domain.FeeProjectionRow

	for rows.Next() {
		var (
			r     domain.FeeProjectionRow
			year  int32
			basis string
		)
		if err := rows.Scan(&r.RunID, &year, &r.Rate, &r.Fee, &basis); err != nil {
			return nil, fmt.Errorf("scan fee projection row: %w", err)
		}
		r.Year = int(year)
		r.Basis = domain.FeeBasis(basis)
		result = append(result, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fee projection rows: %w", err)
	}
	return result, nil
}
