package reporting

import (
	"time"

	"github.com/shopspring/decimal"

	"fund-economics-lab/internal/domain"
)

// Report is the comparison report for one orchestrator run.
type Report struct {
	GeneratedAt time.Time

	Run RunSummary

	// Scenarios in submitted order.
	Scenarios []ScenarioRow

	// Fee projection, ordered by year. Empty when the run projected no fees
	// or no fee store was configured.
	Fees     []FeeRow
	FeeTotal decimal.Decimal

	// Waterfall steps keyed by scenario id. Only scenarios with exits appear.
	Steps map[string][]StepRow
}

// RunSummary describes the run header.
type RunSummary struct {
	RunID         string
	CreatedAt     int64 // Unix ms
	ScenarioCount int
	WaterfallType domain.WaterfallType
	FundSize      decimal.Decimal
}

// ScenarioRow is one row of the comparison table. Money is rounded to cents;
// sections the scenario did not request are nil.
type ScenarioRow struct {
	ScenarioID string
	Position   int
	Name       string

	Mechanism                *domain.ProtectionMechanism
	AdjustedConversionPrice  *decimal.Decimal
	AdjustedConversionShares *decimal.Decimal
	DilutionPct              *decimal.Decimal
	EconomicImpact           *decimal.Decimal

	ConversionValue    *decimal.Decimal
	PresentValue       *decimal.Decimal
	BreakEvenValuation *decimal.Decimal
	OptimalStrategy    *string

	HurdleAmount    *decimal.Decimal
	CarriedInterest *decimal.Decimal
	CatchUp         *decimal.Decimal

	NetCarry *decimal.Decimal
	Clawback *decimal.Decimal
}

// FeeRow is one projected fee year.
type FeeRow struct {
	Year  int
	Rate  decimal.Decimal // fraction, 6 places
	Fee   decimal.Decimal
	Basis domain.FeeBasis
}

// StepRow is one waterfall step.
type StepRow struct {
	Position            int
	DealID              string
	State               string
	Path                string
	Proceeds            decimal.Decimal
	Hurdle              decimal.Decimal
	Carry               decimal.Decimal
	CumulativeCarryPaid decimal.Decimal
	ClawbackReserve     decimal.Decimal
}
