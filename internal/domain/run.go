package domain

// RunRecord represents one orchestrator run.
// Corresponds to econ_runs table in PostgreSQL.
type RunRecord struct {
	RunID         string // PRIMARY KEY, uuid
	CreatedAt     int64  // Unix timestamp in milliseconds
	ScenarioCount int
	WaterfallType WaterfallType
	FundSize      float64
}

// ScenarioRecord is the flattened comparison-table row for one scenario.
// Corresponds to scenario_results table in PostgreSQL. Engine outputs that
// were not requested by the scenario are nil.
type ScenarioRecord struct {
	RunID      string
	ScenarioID string // deterministic identity, see idhash
	Position   int    // index in the submitted scenario list
	Name       string

	// Anti-dilution
	Mechanism                *ProtectionMechanism
	AdjustedConversionPrice  *float64
	AdjustedConversionShares *float64
	DilutionPct              *float64
	EconomicImpact           *float64

	// Conversion decision
	ConversionValue    *float64
	PresentValue       *float64
	BreakEvenValuation *float64
	OptimalStrategy    *string

	// Carry
	HurdleAmount    *float64
	CarriedInterest *float64
	CatchUp         *float64

	// Waterfall
	NetCarry *float64
	Clawback *float64
}

// FeeProjectionRow is one year of a management fee projection.
// Corresponds to fee_projections table in ClickHouse.
type FeeProjectionRow struct {
	RunID string
	Year  int
	Rate  float64
	Fee   float64
	Basis FeeBasis
}

// WaterfallStepRow is one distribution waterfall step of a scenario.
// Corresponds to waterfall_steps table in ClickHouse.
type WaterfallStepRow struct {
	StepID              string // idhash.DealStepID
	RunID               string
	ScenarioID          string
	Position            int
	DealID              string // empty for wind-down
	State               string
	Path                string // states joined by ">"
	Proceeds            float64
	Hurdle              float64
	Carry               float64
	CumulativeCarryPaid float64
	ClawbackReserve     float64
}
