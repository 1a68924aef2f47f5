package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Scenario Comparison Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: %s | Scenarios: %d\n\n", r.Run.RunID, r.Run.ScenarioCount))

	// Fund
	sb.WriteString("## Fund\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Run Created (UTC) | %s |\n", time.UnixMilli(r.Run.CreatedAt).UTC().Format(time.RFC3339)))
	if r.Run.WaterfallType != "" {
		sb.WriteString(fmt.Sprintf("| Waterfall | %s |\n", r.Run.WaterfallType))
		sb.WriteString(fmt.Sprintf("| Fund Size | %s |\n", formatMoney(r.Run.FundSize)))
	}
	sb.WriteString("\n")

	// Anti-dilution
	sb.WriteString("## Anti-Dilution\n\n")
	if rows := filter(r.Scenarios, func(s ScenarioRow) bool { return s.Mechanism != nil }); len(rows) > 0 {
		sb.WriteString("| Scenario | Mechanism | Adj. Price | Adj. Shares | Dilution | Economic Impact |\n")
		sb.WriteString("|----------|-----------|------------|-------------|----------|-----------------|\n")
		for _, s := range rows {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
				s.Name, *s.Mechanism,
				formatOpt(s.AdjustedConversionPrice, 4),
				formatOpt(s.AdjustedConversionShares, 2),
				formatOptPct(s.DilutionPct),
				formatOpt(s.EconomicImpact, moneyPlaces)))
		}
	} else {
		sb.WriteString("No anti-dilution adjustments requested.\n")
	}
	sb.WriteString("\n")

	// Conversion
	sb.WriteString("## Conversion Decisions\n\n")
	if rows := filter(r.Scenarios, func(s ScenarioRow) bool { return s.OptimalStrategy != nil }); len(rows) > 0 {
		sb.WriteString("| Scenario | Strategy | Conversion Value | Present Value | Break-Even Valuation |\n")
		sb.WriteString("|----------|----------|------------------|---------------|----------------------|\n")
		for _, s := range rows {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
				s.Name, *s.OptimalStrategy,
				formatOpt(s.ConversionValue, moneyPlaces),
				formatOpt(s.PresentValue, moneyPlaces),
				formatOpt(s.BreakEvenValuation, moneyPlaces)))
		}
	} else {
		sb.WriteString("No conversion scenarios requested.\n")
	}
	sb.WriteString("\n")

	// Carry
	sb.WriteString("## Carried Interest\n\n")
	if rows := filter(r.Scenarios, func(s ScenarioRow) bool { return s.CarriedInterest != nil || s.NetCarry != nil }); len(rows) > 0 {
		sb.WriteString("| Scenario | Hurdle | Carry | Catch-Up | Net Carry (waterfall) | Clawback |\n")
		sb.WriteString("|----------|--------|-------|----------|-----------------------|----------|\n")
		for _, s := range rows {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
				s.Name,
				formatOpt(s.HurdleAmount, moneyPlaces),
				formatOpt(s.CarriedInterest, moneyPlaces),
				formatOpt(s.CatchUp, moneyPlaces),
				formatOpt(s.NetCarry, moneyPlaces),
				formatOpt(s.Clawback, moneyPlaces)))
		}
	} else {
		sb.WriteString("No carry scenarios requested.\n")
	}
	sb.WriteString("\n")

	// Waterfall steps, in scenario order
	for _, s := range r.Scenarios {
		steps := r.Steps[s.ScenarioID]
		if len(steps) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("### Waterfall: %s\n\n", s.Name))
		sb.WriteString("| # | Deal | State | Proceeds | Hurdle | Carry | Cum. Carry | Clawback Reserve |\n")
		sb.WriteString("|---|------|-------|----------|--------|-------|------------|------------------|\n")
		for _, st := range steps {
			deal := st.DealID
			if deal == "" {
				deal = "-"
			}
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %s | %s | %s |\n",
				st.Position, deal, st.State,
				formatMoney(st.Proceeds), formatMoney(st.Hurdle), formatMoney(st.Carry),
				formatMoney(st.CumulativeCarryPaid), formatMoney(st.ClawbackReserve)))
		}
		sb.WriteString("\n")
	}

	// Fees
	sb.WriteString("## Management Fees\n\n")
	if len(r.Fees) > 0 {
		sb.WriteString("| Year | Rate | Fee | Basis |\n")
		sb.WriteString("|------|------|-----|-------|\n")
		for _, f := range r.Fees {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s |\n", f.Year, formatPct(f.Rate), formatMoney(f.Fee), f.Basis))
		}
		sb.WriteString(fmt.Sprintf("| **Total** | | **%s** | |\n", formatMoney(r.FeeTotal)))
	} else {
		sb.WriteString("No fee projection available.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

func filter(rows []ScenarioRow, keep func(ScenarioRow) bool) []ScenarioRow {
	var out []ScenarioRow
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
