package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fund-economics-lab/internal/domain"
	"fund-economics-lab/internal/storage"
)

// Generator produces reports from stored runs.
type Generator struct {
	runStore      storage.RunStore
	scenarioStore storage.ScenarioResultStore
	feeStore      storage.FeeProjectionStore // optional
	stepStore     storage.WaterfallStepStore // optional
	now           func() time.Time           // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator. feeStore and stepStore may be nil.
func NewGenerator(
	runStore storage.RunStore,
	scenarioStore storage.ScenarioResultStore,
	feeStore storage.FeeProjectionStore,
	stepStore storage.WaterfallStepStore,
) *Generator {
	return &Generator{
		runStore:      runStore,
		scenarioStore: scenarioStore,
		feeStore:      feeStore,
		stepStore:     stepStore,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds the report for runID.
func (g *Generator) Generate(ctx context.Context, runID string) (*Report, error) {
	run, err := g.runStore.GetByID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}

	records, err := g.scenarioStore.GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load scenario results: %w", err)
	}

	report := &Report{
		GeneratedAt: g.now(),
		Run: RunSummary{
			RunID:         run.RunID,
			CreatedAt:     run.CreatedAt,
			ScenarioCount: run.ScenarioCount,
			WaterfallType: run.WaterfallType,
			FundSize:      money(run.FundSize),
		},
		Scenarios: scenarioRows(records),
		FeeTotal:  decimal.Zero,
		Steps:     make(map[string][]StepRow),
	}

	if g.feeStore != nil {
		fees, err := g.feeStore.GetByRunID(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("load fee projection: %w", err)
		}
		report.Fees, report.FeeTotal = feeRows(fees)
	}

	if g.stepStore != nil {
		for _, rec := range records {
			if rec.NetCarry == nil {
				continue
			}
			steps, err := g.stepStore.GetByScenario(ctx, runID, rec.ScenarioID)
			if err != nil {
				return nil, fmt.Errorf("load waterfall steps of %s: %w", rec.ScenarioID, err)
			}
			if len(steps) > 0 {
				report.Steps[rec.ScenarioID] = stepRows(steps)
			}
		}
	}

	return report, nil
}

func scenarioRows(records []*domain.ScenarioRecord) []ScenarioRow {
	rows := make([]ScenarioRow, len(records))
	for i, r := range records {
		rows[i] = ScenarioRow{
			ScenarioID: r.ScenarioID,
			Position:   r.Position,
			Name:       r.Name,

			Mechanism:                r.Mechanism,
			AdjustedConversionPrice:  precisePtr(r.AdjustedConversionPrice),
			AdjustedConversionShares: moneyPtr(r.AdjustedConversionShares),
			DilutionPct:              precisePtr(r.DilutionPct),
			EconomicImpact:           moneyPtr(r.EconomicImpact),

			ConversionValue:    moneyPtr(r.ConversionValue),
			PresentValue:       moneyPtr(r.PresentValue),
			BreakEvenValuation: moneyPtr(r.BreakEvenValuation),
			OptimalStrategy:    r.OptimalStrategy,

			HurdleAmount:    moneyPtr(r.HurdleAmount),
			CarriedInterest: moneyPtr(r.CarriedInterest),
			CatchUp:         moneyPtr(r.CatchUp),

			NetCarry: moneyPtr(r.NetCarry),
			Clawback: moneyPtr(r.Clawback),
		}
	}
	return rows
}

// feeRows converts the projection and sums the rounded fees, so the total
// always equals the sum of the printed rows.
func feeRows(fees []*domain.FeeProjectionRow) ([]FeeRow, decimal.Decimal) {
	rows := make([]FeeRow, len(fees))
	total := decimal.Zero
	for i, f := range fees {
		rows[i] = FeeRow{
			Year:  f.Year,
			Rate:  precise(f.Rate),
			Fee:   money(f.Fee),
			Basis: f.Basis,
		}
		total = total.Add(rows[i].Fee)
	}
	return rows, total
}

func stepRows(steps []*domain.WaterfallStepRow) []StepRow {
	rows := make([]StepRow, len(steps))
	for i, s := range steps {
		rows[i] = StepRow{
			Position:            s.Position,
			DealID:              s.DealID,
			State:               s.State,
			Path:                s.Path,
			Proceeds:            money(s.Proceeds),
			Hurdle:              money(s.Hurdle),
			Carry:               money(s.Carry),
			CumulativeCarryPaid: money(s.CumulativeCarryPaid),
			ClawbackReserve:     money(s.ClawbackReserve),
		}
	}
	return rows
}
