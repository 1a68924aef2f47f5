// Package conversion evaluates whether a convertible holder should convert,
// hold, or take the liquidation preference under a set of exit scenarios.
package conversion

import (
	"fmt"
	"math"

	"fund-economics-lab/internal/domain"
)

// Strategy is the recommended action for a scenario.
type Strategy string

const (
	StrategyConvert   Strategy = "CONVERT"
	StrategyHold      Strategy = "HOLD"
	StrategyLiquidate Strategy = "LIQUIDATE"
)

// Rule identifies which decision rule produced the strategy.
type Rule string

const (
	RuleConversionExceedsPreference Rule = "conversion_value_exceeds_preference"
	RuleDistressedValuation         Rule = "valuation_below_distress_floor"
	RuleDefaultHold                 Rule = "default_hold"
)

// distressValuationRatio is the fraction of current valuation below which the
// holder should take the preference instead of waiting.
const distressValuationRatio = 0.5

// Evaluation is the outcome of one scenario.
type Evaluation struct {
	Scenario                   domain.ConversionScenario
	ConversionShares           float64
	TotalSharesAfterConversion float64
	ConversionValue            float64
	LiquidationValue           float64
	PresentValue               float64
	BreakEvenValuation         float64
	DilutionImpact             float64
	ImpliedPricePerShare       float64
	ExpectedHoldValue          float64
	OptimalStrategy            Strategy
	Rule                       Rule
	AutomaticConversion        bool // mandatory instrument or an automatic trigger is met
}

func validate(in domain.ConversionInputs, policy *domain.DiscountPolicy) *domain.ValidationResult {
	r := domain.ValidateConversionInputs(in)
	r.Merge(domain.ValidateDiscountPolicy(policy))
	return r
}

// EvaluateScenario evaluates a single scenario.
func EvaluateScenario(in domain.ConversionInputs, sc domain.ConversionScenario, policy *domain.DiscountPolicy) (*Evaluation, error) {
	r := validate(in, policy)
	r.Merge(domain.ValidateConversionScenario(sc))
	if err := r.Err(); err != nil {
		return nil, err
	}
	return evaluate(in, sc, policy.AnnualDiscountRate)
}

// EvaluateAllScenarios evaluates scenarios in order. Every scenario is
// validated before any is computed; result i always corresponds to scenarios[i].
func EvaluateAllScenarios(in domain.ConversionInputs, scenarios []domain.ConversionScenario, policy *domain.DiscountPolicy) ([]Evaluation, error) {
	r := validate(in, policy)
	for _, sc := range scenarios {
		r.Merge(domain.ValidateConversionScenario(sc))
	}
	if err := r.Err(); err != nil {
		return nil, err
	}

	out := make([]Evaluation, len(scenarios))
	for i, sc := range scenarios {
		ev, err := evaluate(in, sc, policy.AnnualDiscountRate)
		if err != nil {
			return nil, fmt.Errorf("scenario %d (%s): %w", i, sc.Name, err)
		}
		out[i] = *ev
	}
	return out, nil
}

// evaluate assumes validated inputs.
func evaluate(in domain.ConversionInputs, sc domain.ConversionScenario, discountRate float64) (*Evaluation, error) {
	conversionShares := in.OriginalInvestment / in.Right.ConversionPrice
	totalShares := in.TotalSharesOutstanding + conversionShares
	if totalShares == 0 {
		return nil, domain.NewError(domain.KindDivisionByZero, "totalSharesAfterConversion", "no shares outstanding after conversion")
	}
	if conversionShares == 0 {
		return nil, domain.NewError(domain.KindDivisionByZero, "conversionShares", "break-even valuation undefined with zero conversion shares")
	}

	conversionValue := sc.CompanyValuation * conversionShares / totalShares
	impliedPrice := sc.CompanyValuation / totalShares

	strategy, rule := decide(conversionValue, in.LiquidationPreferenceAmount, sc.CompanyValuation, in.CurrentCompanyValuation)

	return &Evaluation{
		Scenario:                   sc,
		ConversionShares:           conversionShares,
		TotalSharesAfterConversion: totalShares,
		ConversionValue:            conversionValue,
		LiquidationValue:           in.LiquidationPreferenceAmount,
		PresentValue:               conversionValue / math.Pow(1+discountRate, sc.TimeToConversionYears),
		BreakEvenValuation:         in.LiquidationPreferenceAmount * totalShares / conversionShares,
		DilutionImpact:             conversionShares / totalShares,
		ImpliedPricePerShare:       impliedPrice,
		ExpectedHoldValue:          in.OriginalInvestment * sc.ExpectedReturnMultiple,
		OptimalStrategy:            strategy,
		Rule:                       rule,
		AutomaticConversion:        automaticConversion(in.Right, sc, impliedPrice),
	}, nil
}

// decide applies the decision rules in order; the first match wins.
func decide(conversionValue, preference, valuation, currentValuation float64) (Strategy, Rule) {
	switch {
	case conversionValue > preference:
		return StrategyConvert, RuleConversionExceedsPreference
	case valuation < currentValuation*distressValuationRatio:
		return StrategyLiquidate, RuleDistressedValuation
	default:
		return StrategyHold, RuleDefaultHold
	}
}

// automaticConversion reports whether the instrument converts without holder choice.
// A trigger only fires when every threshold it defines is met.
func automaticConversion(right domain.ConversionRight, sc domain.ConversionScenario, impliedPrice float64) bool {
	if right.ConversionType == domain.ConversionMandatory {
		return true
	}
	t := right.Triggers
	if t == nil {
		return false
	}

	switch sc.TriggerType {
	case domain.TriggerIPO:
		return thresholdsMet(sc.CompanyValuation, t.IPOValuation, impliedPrice, t.IPOPrice)
	case domain.TriggerQualifiedFinancing:
		return thresholdsMet(sc.CompanyValuation, t.QualifiedFinancingMinimum, impliedPrice, t.QualifiedFinancingPrice)
	default:
		return false
	}
}

func thresholdsMet(valuation, minValuation, price, minPrice float64) bool {
	if minValuation == 0 && minPrice == 0 {
		return false
	}
	if minValuation > 0 && valuation < minValuation {
		return false
	}
	if minPrice > 0 && price < minPrice {
		return false
	}
	return true
}
