package storage

import (
	"context"

	"fund-economics-lab/internal/domain"
)

// RunStore provides access to econ_runs storage.
type RunStore interface {
	// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.RunRecord) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.RunRecord, error)

	// List retrieves runs created within [start, end] (inclusive), ordered by created_at ASC.
	List(ctx context.Context, start, end int64) ([]*domain.RunRecord, error)
}

// ScenarioResultStore provides access to scenario_results storage.
type ScenarioResultStore interface {
	// InsertBulk adds multiple records atomically. Fails entire batch on any
	// duplicate (run_id, scenario_id).
	InsertBulk(ctx context.Context, records []*domain.ScenarioRecord) error

	// GetByRunID retrieves all records of a run, ordered by position ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.ScenarioRecord, error)

	// GetByID retrieves one record. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID, scenarioID string) (*domain.ScenarioRecord, error)
}

// FeeProjectionStore provides access to fee_projections storage.
type FeeProjectionStore interface {
	// InsertBulk adds multiple rows. Fails entire batch on duplicate (run_id, year).
	InsertBulk(ctx context.Context, rows []*domain.FeeProjectionRow) error

	// GetByRunID retrieves all rows of a run, ordered by year ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.FeeProjectionRow, error)
}

// WaterfallStepStore provides access to waterfall_steps storage.
type WaterfallStepStore interface {
	// InsertBulk adds multiple steps. Fails entire batch on duplicate step_id.
	InsertBulk(ctx context.Context, steps []*domain.WaterfallStepRow) error

	// GetByScenario retrieves the steps of one scenario, ordered by position ASC.
	GetByScenario(ctx context.Context, runID, scenarioID string) ([]*domain.WaterfallStepRow, error)
}
