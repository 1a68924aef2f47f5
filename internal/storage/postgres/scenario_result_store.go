package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"fund-economics-lab/internal/domain"
	"fund-economics-lab/internal/storage"
)

// ScenarioResultStore implements storage.ScenarioResultStore using PostgreSQL.
type ScenarioResultStore struct {
	pool *Pool
}

// NewScenarioResultStore creates a new ScenarioResultStore.
func NewScenarioResultStore(pool *Pool) *ScenarioResultStore {
	return &ScenarioResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ScenarioResultStore = (*ScenarioResultStore)(nil)

const scenarioColumns = `
	run_id, scenario_id, position, name,
	mechanism, adjusted_conversion_price, adjusted_conversion_shares, dilution_pct, economic_impact,
	conversion_value, present_value, break_even_valuation, optimal_strategy,
	hurdle_amount, carried_interest, catch_up,
	net_carry, clawback`

// InsertBulk adds multiple records atomically. Fails entire batch on any duplicate.
// A record whose run is not stored is rejected with ErrInvalidInput.
func (s *ScenarioResultStore) InsertBulk(ctx context.Context, records []*domain.ScenarioRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		if r == nil || r.RunID == "" || r.ScenarioID == "" {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO scenario_results (` + scenarioColumns + `) VALUES (
		$1, $2, $3, $4,
		$5, $6, $7, $8, $9,
		$10, $11, $12, $13,
		$14, $15, $16,
		$17, $18
	)`

	for _, r := range records {
		var mechanism *string
		if r.Mechanism != nil {
			m := string(*r.Mechanism)
			mechanism = &m
		}

		_, err := tx.Exec(ctx, query,
			r.RunID, r.ScenarioID, r.Position, r.Name,
			mechanism, r.AdjustedConversionPrice, r.AdjustedConversionShares, r.DilutionPct, r.EconomicImpact,
			r.ConversionValue, r.PresentValue, r.BreakEvenValuation, r.OptimalStrategy,
			r.HurdleAmount, r.CarriedInterest, r.CatchUp,
			r.NetCarry, r.Clawback,
		)
		if err != nil {
			switch {
			case isDuplicateKeyError(err):
				return storage.ErrDuplicateKey
			case isMissingParentError(err):
				return fmt.Errorf("scenario %s: run %s not stored: %w", r.ScenarioID, r.RunID, storage.ErrInvalidInput)
			}
			return fmt.Errorf("insert scenario result in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByRunID retrieves all records of a run, ordered by position ASC.
func (s *ScenarioResultStore) GetByRunID(ctx context.Context, runID string) ([]*domain.ScenarioRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+scenarioColumns+` FROM scenario_results WHERE run_id = $1 ORDER BY position ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query scenario results: %w", err)
	}
	defer rows.Close()

	var result []*domain.ScenarioRecord
	for rows.Next() {
		r, err := scanScenarioRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scenario result row: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scenario result rows: %w", err)
	}
	return result, nil
}

// GetByID retrieves one record. Returns ErrNotFound if not exists.
func (s *ScenarioResultStore) GetByID(ctx context.Context, runID, scenarioID string) (*domain.ScenarioRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+scenarioColumns+` FROM scenario_results WHERE run_id = $1 AND scenario_id = $2`,
		runID, scenarioID,
	)
	r, err := scanScenarioRecord(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get scenario result: %w", err)
	}
	return r, nil
}

func scanScenarioRecord(row pgx.Row) (*domain.ScenarioRecord, error) {
	var (
		r         domain.ScenarioRecord
		mechanism *string
	)
	err := row.Scan(
		&r.RunID, &r.ScenarioID, &r.Position, &r.Name,
		&mechanism, &r.AdjustedConversionPrice, &r.AdjustedConversionShares, &r.DilutionPct, &r.EconomicImpact,
		&r.ConversionValue, &r.PresentValue, &r.BreakEvenValuation, &r.OptimalStrategy,
		&r.HurdleAmount, &r.CarriedInterest, &r.CatchUp,
		&r.NetCarry, &r.Clawback,
	)
	if err != nil {
		return nil, err
	}
	if mechanism != nil {
		m := domain.ProtectionMechanism(*mechanism)
		r.Mechanism = &m
	}
	return &r, nil
}
