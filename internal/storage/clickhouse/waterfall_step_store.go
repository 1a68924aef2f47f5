package clickhouse

import (
	"context"
	"fmt"

	"fund-economics-lab/internal/domain"
	"fund-economics-lab/internal/storage"
)

// WaterfallStepStore implements storage.WaterfallStepStore using ClickHouse.
type WaterfallStepStore struct {
	conn *Conn
}

// NewWaterfallStepStore creates a new WaterfallStepStore.
func NewWaterfallStepStore(conn *Conn) *WaterfallStepStore {
	return &WaterfallStepStore{conn: conn}
}

// Compile-time interface check.
var _ storage.WaterfallStepStore = (*WaterfallStepStore)(nil)

// InsertBulk adds multiple steps. Fails entire batch on any duplicate step_id.
func (s *WaterfallStepStore) InsertBulk(ctx context.Context, steps []*domain.WaterfallStepRow) error {
	if len(steps) == 0 {
		return nil
	}

	ids := make([]string, 0, len(steps))
	seen := make(map[string]struct{}, len(steps))
	for _, st := range steps {
		if st == nil || st.StepID == "" || st.RunID == "" || st.ScenarioID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[st.StepID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[st.StepID] = struct{}{}
		ids = append(ids, st.StepID)
	}

	var count uint64
	if err := s.conn.QueryRow(ctx,
		`SELECT count(*) FROM waterfall_steps WHERE step_id IN ?`, ids,
	).Scan(&count); err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if count > 0 {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO waterfall_steps (
			step_id, run_id, scenario_id, position, deal_id, state, path,
			proceeds, hurdle, carry, cumulative_carry_paid, clawback_reserve
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, st := range steps {
		err = batch.Append(
			st.StepID, st.RunID, st.ScenarioID, int32(st.Position), st.DealID, st.State, st.Path,
			st.Proceeds, st.Hurdle, st.Carry, st.CumulativeCarryPaid, st.ClawbackReserve,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByScenario retrieves the steps of one scenario, ordered by position ASC.
func (s *WaterfallStepStore) GetByScenario(ctx context.Context, runID, scenarioID string) ([]*domain.WaterfallStepRow, error) {
	query := `
		SELECT
			step_id, run_id, scenario_id, position, deal_id, state, path,
			proceeds, hurdle, carry, cumulative_carry_paid, clawback_reserve
		FROM waterfall_steps
		WHERE run_id = ? AND scenario_id = ?
		ORDER BY position ASC
	`

	rows, err := s.conn.Query(ctx, query, runID, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("query waterfall steps: %w", err)
	}
	defer rows.Close()

	var result []*domain.WaterfallStepRow
	for rows.Next() {
		var (
			st       domain.WaterfallStepRow
			position int32
		)
		err := rows.Scan(
			&st.StepID, &st.RunID, &st.ScenarioID, &position, &st.DealID, &st.State, &st.Path,
			&st.Proceeds, &st.Hurdle, &st.Carry, &st.CumulativeCarryPaid, &st.ClawbackReserve,
		)
		if err != nil {
			return nil, fmt.Errorf("scan waterfall step row: %w", err)
		}
		st.Position = int(position)
		result = append(result, &st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate waterfall step rows: %w", err)
	}
	return result, nil
}
