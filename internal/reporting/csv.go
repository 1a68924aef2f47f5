package reporting

import (
	"encoding/csv"
	"strconv"
	"strings"
)

var scenarioHeader = []string{
	"position", "scenario_id", "name",
	"mechanism", "adjusted_conversion_price", "adjusted_conversion_shares", "dilution_pct", "economic_impact",
	"conversion_value", "present_value", "break_even_valuation", "optimal_strategy",
	"hurdle_amount", "carried_interest", "catch_up",
	"net_carry", "clawback",
}

// RenderScenarioCSV renders the comparison table as CSV string. Columns of
// sections a scenario did not request are empty.
func RenderScenarioCSV(rows []ScenarioRow) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write(scenarioHeader); err != nil {
		return "", err
	}
	for _, s := range rows {
		mechanism := ""
		if s.Mechanism != nil {
			mechanism = string(*s.Mechanism)
		}
		strategy := ""
		if s.OptimalStrategy != nil {
			strategy = *s.OptimalStrategy
		}
		record := []string{
			strconv.Itoa(s.Position), s.ScenarioID, s.Name,
			mechanism,
			formatOpt(s.AdjustedConversionPrice, precisePlaces),
			formatOpt(s.AdjustedConversionShares, moneyPlaces),
			formatOpt(s.DilutionPct, precisePlaces),
			formatOpt(s.EconomicImpact, moneyPlaces),
			formatOpt(s.ConversionValue, moneyPlaces),
			formatOpt(s.PresentValue, moneyPlaces),
			formatOpt(s.BreakEvenValuation, moneyPlaces),
			strategy,
			formatOpt(s.HurdleAmount, moneyPlaces),
			formatOpt(s.CarriedInterest, moneyPlaces),
			formatOpt(s.CatchUp, moneyPlaces),
			formatOpt(s.NetCarry, moneyPlaces),
			formatOpt(s.Clawback, moneyPlaces),
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}

	w.Flush()
	return sb.String(), w.Error()
}

// RenderFeeCSV renders the fee projection as CSV string.
func RenderFeeCSV(fees []FeeRow) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write([]string{"year", "rate", "fee", "basis"}); err != nil {
		return "", err
	}
	for _, f := range fees {
		if err := w.Write([]string{
			strconv.Itoa(f.Year),
			f.Rate.StringFixed(precisePlaces),
			formatMoney(f.Fee),
			string(f.Basis),
		}); err != nil {
			return "", err
		}
	}

	w.Flush()
	return sb.String(), w.Error()
}
