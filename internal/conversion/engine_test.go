package conversion

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fund-economics-lab/internal/domain"
)

func testInputs() domain.ConversionInputs {
	return domain.ConversionInputs{
		OriginalInvestment:          10_000_000,
		TotalSharesOutstanding:      20_000_000,
		LiquidationPreferenceAmount: 10_000_000,
		CurrentCompanyValuation:     50_000_000,
		Right: domain.ConversionRight{
			ConversionPrice: 2.0,
			ConversionRatio: 1.0,
			ConversionType:  domain.ConversionOptional,
		},
	}
}

func TestEvaluateScenario_Convert(t *testing.T) {
	sc := domain.ConversionScenario{
		Name:                   "ipo",
		CompanyValuation:       100_000_000,
		TimeToConversionYears:  3,
		TriggerType:            domain.TriggerIPO,
		ExpectedReturnMultiple: 2.5,
	}

	ev, err := EvaluateScenario(testInputs(), sc, domain.DefaultDiscountPolicy())
	require.NoError(t, err)

	// 5M conversion shares of 25M total
	assert.InDelta(t, 5_000_000, ev.ConversionShares, 1e-9)
	assert.InDelta(t, 25_000_000, ev.TotalSharesAfterConversion, 1e-9)
	assert.InDelta(t, 20_000_000, ev.ConversionValue, 1e-6)
	assert.InDelta(t, 0.2, ev.DilutionImpact, 1e-12)
	assert.InDelta(t, 50_000_000, ev.BreakEvenValuation, 1e-6)
	assert.InDelta(t, 20_000_000/math.Pow(1.12, 3), ev.PresentValue, 1e-6)
	assert.InDelta(t, 4.0, ev.ImpliedPricePerShare, 1e-12)
	assert.InDelta(t, 25_000_000, ev.ExpectedHoldValue, 1e-6)
	assert.Equal(t, 10_000_000.0, ev.LiquidationValue)
	assert.Equal(t, StrategyConvert, ev.OptimalStrategy)
	assert.Equal(t, RuleConversionExceedsPreference, ev.Rule)
	assert.False(t, ev.AutomaticConversion)
}

func TestEvaluateScenario_LiquidateAtZeroValuation(t *testing.T) {
	sc := domain.ConversionScenario{Name: "wipeout", TriggerType: domain.TriggerAcquisition}

	ev, err := EvaluateScenario(testInputs(), sc, domain.DefaultDiscountPolicy())
	require.NoError(t, err)
	assert.Equal(t, StrategyLiquidate, ev.OptimalStrategy)
	assert.Equal(t, RuleDistressedValuation, ev.Rule)
	assert.Equal(t, 0.0, ev.ConversionValue)
	assert.Equal(t, 0.0, ev.PresentValue)
}

func TestEvaluateScenario_Hold(t *testing.T) {
	// 40M valuation -> 8M conversion value, below the 10M preference but above the 25M floor.
	sc := domain.ConversionScenario{Name: "flat", CompanyValuation: 40_000_000, TriggerType: domain.TriggerVoluntary}

	ev, err := EvaluateScenario(testInputs(), sc, domain.DefaultDiscountPolicy())
	require.NoError(t, err)
	assert.Equal(t, StrategyHold, ev.OptimalStrategy)
	assert.Equal(t, RuleDefaultHold, ev.Rule)
}

func TestEvaluateScenario_ConvertWinsOverDistress(t *testing.T) {
	in := testInputs()
	in.LiquidationPreferenceAmount = 1_000_000
	in.CurrentCompanyValuation = 500_000_000
	// Valuation is under half of current, but conversion still beats the preference.
	sc := domain.ConversionScenario{Name: "early", CompanyValuation: 100_000_000, TriggerType: domain.TriggerAcquisition}

	ev, err := EvaluateScenario(in, sc, domain.DefaultDiscountPolicy())
	require.NoError(t, err)
	assert.Equal(t, StrategyConvert, ev.OptimalStrategy)
}

func TestEvaluateScenario_DiscountPolicyIsExplicit(t *testing.T) {
	sc := domain.ConversionScenario{Name: "x", CompanyValuation: 1, TriggerType: domain.TriggerIPO}

	_, err := EvaluateScenario(testInputs(), sc, nil)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))

	ev, err := EvaluateScenario(testInputs(), domain.ConversionScenario{
		Name: "y", CompanyValuation: 100_000_000, TimeToConversionYears: 2, TriggerType: domain.TriggerIPO,
	}, &domain.DiscountPolicy{AnnualDiscountRate: 0})
	require.NoError(t, err)
	assert.InDelta(t, ev.ConversionValue, ev.PresentValue, 1e-9)
}

func TestEvaluateScenario_InvalidInput(t *testing.T) {
	sc := domain.ConversionScenario{Name: "x", CompanyValuation: 1, TriggerType: domain.TriggerIPO}

	in := testInputs()
	in.Right.ConversionPrice = 0
	_, err := EvaluateScenario(in, sc, domain.DefaultDiscountPolicy())
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	in = testInputs()
	in.TotalSharesOutstanding = -1
	_, err = EvaluateScenario(in, sc, domain.DefaultDiscountPolicy())
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	neg := sc
	neg.CompanyValuation = -5
	_, err = EvaluateScenario(testInputs(), neg, domain.DefaultDiscountPolicy())
	assert.True(t, errors.Is(err, domain.ErrDataConsistency))
}

func TestEvaluateScenario_ZeroInvestment(t *testing.T) {
	in := testInputs()
	in.OriginalInvestment = 0
	sc := domain.ConversionScenario{Name: "x", CompanyValuation: 1, TriggerType: domain.TriggerIPO}

	_, err := EvaluateScenario(in, sc, domain.DefaultDiscountPolicy())
	assert.True(t, errors.Is(err, domain.ErrDivisionByZero))
}

func TestEvaluateAllScenarios_PreservesOrder(t *testing.T) {
	scenarios := []domain.ConversionScenario{
		{Name: "bear", CompanyValuation: 10_000_000, TriggerType: domain.TriggerAcquisition},
		{Name: "bull", CompanyValuation: 300_000_000, TimeToConversionYears: 4, TriggerType: domain.TriggerIPO},
		{Name: "base", CompanyValuation: 40_000_000, TimeToConversionYears: 2, TriggerType: domain.TriggerVoluntary},
	}

	got, err := EvaluateAllScenarios(testInputs(), scenarios, domain.DefaultDiscountPolicy())
	require.NoError(t, err)
	require.Len(t, got, 3)

	for i := range scenarios {
		assert.Equal(t, scenarios[i].Name, got[i].Scenario.Name)
	}
	assert.Equal(t, StrategyLiquidate, got[0].OptimalStrategy)
	assert.Equal(t, StrategyConvert, got[1].OptimalStrategy)
	assert.Equal(t, StrategyHold, got[2].OptimalStrategy)
}

func TestEvaluateAllScenarios_FailFast(t *testing.T) {
	scenarios := []domain.ConversionScenario{
		{Name: "ok", CompanyValuation: 1, TriggerType: domain.TriggerIPO},
		{Name: "bad", CompanyValuation: 1, TriggerType: "SPAC"},
	}

	got, err := EvaluateAllScenarios(testInputs(), scenarios, domain.DefaultDiscountPolicy())
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestAutomaticConversion(t *testing.T) {
	in := testInputs()
	in.Right.Triggers = &domain.AutomaticTriggers{
		IPOValuation:              200_000_000,
		IPOPrice:                  6,
		QualifiedFinancingMinimum: 30_000_000,
	}
	policy := domain.DefaultDiscountPolicy()

	tests := []struct {
		name      string
		valuation float64
		trigger   domain.TriggerType
		want      bool
	}{
		{"ipo meets valuation and price", 250_000_000, domain.TriggerIPO, true},
		{"ipo below price", 140_000_000, domain.TriggerIPO, false},
		{"qualified financing met", 30_000_000, domain.TriggerQualifiedFinancing, true},
		{"qualified financing below minimum", 29_000_000, domain.TriggerQualifiedFinancing, false},
		{"acquisition never automatic", 900_000_000, domain.TriggerAcquisition, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := EvaluateScenario(in, domain.ConversionScenario{
				Name: tt.name, CompanyValuation: tt.valuation, TriggerType: tt.trigger,
			}, policy)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ev.AutomaticConversion)
		})
	}

	mandatory := testInputs()
	mandatory.Right.ConversionType = domain.ConversionMandatory
	ev, err := EvaluateScenario(mandatory, domain.ConversionScenario{Name: "m", TriggerType: domain.TriggerVoluntary}, policy)
	require.NoError(t, err)
	assert.True(t, ev.AutomaticConversion)
	// The decision rules are unaffected by automatic conversion.
	assert.Equal(t, StrategyLiquidate, ev.OptimalStrategy)
}
