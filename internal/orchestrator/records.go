package orchestrator

import (
	"strings"

	"fund-economics-lab/internal/domain"
	"fund-economics-lab/internal/idhash"
	"fund-economics-lab/internal/waterfall"
)

// RunRecord flattens the run header. fund may be nil.
func (r *RunResult) RunRecord(fund *domain.FundEconomics) *domain.RunRecord {
	rec := &domain.RunRecord{
		RunID:         r.RunID,
		CreatedAt:     r.CreatedAt,
		ScenarioCount: len(r.Results),
	}
	if fund != nil {
		rec.WaterfallType = fund.WaterfallType
		rec.FundSize = fund.FundSize
	}
	return rec
}

// ScenarioRecords flattens each result into a comparison-table row, in input order.
func (r *RunResult) ScenarioRecords() []*domain.ScenarioRecord {
	out := make([]*domain.ScenarioRecord, len(r.Results))
	for i := range r.Results {
		res := &r.Results[i]
		rec := &domain.ScenarioRecord{
			RunID:      r.RunID,
			ScenarioID: res.ID,
			Position:   res.Position,
			Name:       res.Name,
		}

		if a := res.Adjustment; a != nil {
			rec.Mechanism = ptr(a.Mechanism)
			rec.AdjustedConversionPrice = ptr(a.AdjustedConversionPrice)
			rec.AdjustedConversionShares = ptr(a.AdjustedConversionShares)
			rec.DilutionPct = ptr(a.DilutionPct)
			rec.EconomicImpact = ptr(a.EconomicImpact)
		}
		if c := res.Conversion; c != nil {
			rec.ConversionValue = ptr(c.ConversionValue)
			rec.PresentValue = ptr(c.PresentValue)
			rec.BreakEvenValuation = ptr(c.BreakEvenValuation)
			rec.OptimalStrategy = ptr(string(c.OptimalStrategy))
		}
		if c := res.Carry; c != nil {
			rec.HurdleAmount = ptr(c.HurdleAmount)
			rec.CarriedInterest = ptr(c.CarriedInterest)
			rec.CatchUp = ptr(c.CatchUp)
		}
		if w := res.Waterfall; w != nil {
			rec.NetCarry = ptr(w.NetCarry)
			rec.Clawback = ptr(w.Clawback)
		}
		out[i] = rec
	}
	return out
}

// FeeRows flattens the fee schedule.
func (r *RunResult) FeeRows(basis domain.FeeBasis) []*domain.FeeProjectionRow {
	out := make([]*domain.FeeProjectionRow, len(r.FeeSchedule))
	for i, y := range r.FeeSchedule {
		out[i] = &domain.FeeProjectionRow{
			RunID: r.RunID,
			Year:  y.Year,
			Rate:  y.Rate,
			Fee:   y.Fee,
			Basis: basis,
		}
	}
	return out
}

// StepRows flattens every scenario's waterfall steps.
func (r *RunResult) StepRows() []*domain.WaterfallStepRow {
	var out []*domain.WaterfallStepRow
	for i := range r.Results {
		res := &r.Results[i]
		if res.Waterfall == nil {
			continue
		}
		for pos, st := range res.Waterfall.Steps {
			out = append(out, &domain.WaterfallStepRow{
				StepID:              idhash.DealStepID(r.RunID, res.ID, st.DealID, pos),
				RunID:               r.RunID,
				ScenarioID:          res.ID,
				Position:            pos,
				DealID:              st.DealID,
				State:               string(st.State),
				Path:                joinPath(st.Path),
				Proceeds:            st.Proceeds,
				Hurdle:              st.Hurdle,
				Carry:               st.Carry,
				CumulativeCarryPaid: st.CumulativeCarryPaid,
				ClawbackReserve:     st.ClawbackReserve,
			})
		}
	}
	return out
}

func joinPath(path []waterfall.State) string {
	parts := make([]string, len(path))
	for i, s := range path {
		parts[i] = string(s)
	}
	return strings.Join(parts, ">")
}

func ptr[T any](v T) *T {
	return &v
}
