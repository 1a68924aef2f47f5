package antidilution

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fund-economics-lab/internal/domain"
)

func referenceCase() (domain.CapitalStructure, domain.DownRoundEvent) {
	cs := domain.CapitalStructure{
		OriginalInvestment:        10_000_000,
		OriginalPricePerShare:     2.00,
		ExistingSharesOutstanding: 10_000_000,
	}
	dr := domain.DownRoundEvent{
		NewFinancingAmount:        5_000_000,
		NewFinancingPricePerShare: 1.00,
	}
	return cs, dr
}

func TestComputeAdjustment_ReferenceScenario(t *testing.T) {
	cs, dr := referenceCase()

	fr, err := ComputeAdjustment(cs, dr, domain.MechanismFullRatchet)
	require.NoError(t, err)
	assert.Equal(t, 1.00, fr.AdjustedConversionPrice)
	assert.InDelta(t, 10_000_000, fr.AdjustedConversionShares, 1e-6)
	assert.InDelta(t, 5_000_000, fr.OriginalConversionShares, 1e-6)
	assert.InDelta(t, 5_000_000, fr.NewSharesIssued, 1e-6)
	// 10M / (10M + 5M + 10M)
	assert.InDelta(t, 0.4, fr.DilutionPct, 1e-12)
	assert.InDelta(t, 5_000_000, fr.EconomicImpact, 1e-6)
	assert.True(t, fr.DownRound)

	narrow, err := ComputeAdjustment(cs, dr, domain.MechanismWeightedAverageNarrow)
	require.NoError(t, err)
	// (2*10M + 5M) / (10M + 5M)
	assert.InDelta(t, 1.6667, narrow.AdjustedConversionPrice, 1e-4)
	assert.InDelta(t, 6_000_000, narrow.AdjustedConversionShares, 1e-3)
}

func TestComputeAdjustment_BroadBaseIncludesPoolAndConvertibles(t *testing.T) {
	cs, dr := referenceCase()
	cs.OptionPoolShares = 1_500_000
	cs.ConvertibleSecurityShares = 500_000

	broad, err := ComputeAdjustment(cs, dr, domain.MechanismWeightedAverageBroad)
	require.NoError(t, err)
	// (2*12M + 5M) / (12M + 5M) = 29/17
	assert.InDelta(t, 29.0/17.0, broad.AdjustedConversionPrice, 1e-12)

	// Dilution denominator stays on the narrow count.
	want := broad.AdjustedConversionShares / (10_000_000 + 5_000_000 + broad.AdjustedConversionShares)
	assert.InDelta(t, want, broad.DilutionPct, 1e-12)
}

func TestComputeAdjustment_NoneHasZeroImpact(t *testing.T) {
	cs, dr := referenceCase()

	none, err := ComputeAdjustment(cs, dr, domain.MechanismNone)
	require.NoError(t, err)
	assert.Equal(t, cs.OriginalPricePerShare, none.AdjustedConversionPrice)
	assert.Equal(t, 0.0, none.EconomicImpact)
}

func TestComputeAdjustment_ShareOrdering(t *testing.T) {
	cases := []struct {
		name string
		pool float64
		conv float64
		amt  float64
		px   float64
	}{
		{"no pool", 0, 0, 5_000_000, 1.0},
		{"with pool", 2_000_000, 0, 5_000_000, 1.0},
		{"pool and convertibles", 2_000_000, 1_000_000, 3_000_000, 0.5},
		{"shallow down round", 500_000, 250_000, 20_000_000, 1.9},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cs, _ := referenceCase()
			cs.OptionPoolShares = tc.pool
			cs.ConvertibleSecurityShares = tc.conv
			dr := domain.DownRoundEvent{NewFinancingAmount: tc.amt, NewFinancingPricePerShare: tc.px}

			cmp, err := CompareMechanisms(cs, dr)
			require.NoError(t, err)

			fr, _ := cmp.Get(domain.MechanismFullRatchet)
			narrow, _ := cmp.Get(domain.MechanismWeightedAverageNarrow)
			broad, _ := cmp.Get(domain.MechanismWeightedAverageBroad)
			none, _ := cmp.Get(domain.MechanismNone)

			assert.GreaterOrEqual(t, fr.AdjustedConversionShares, narrow.AdjustedConversionShares)
			assert.GreaterOrEqual(t, narrow.AdjustedConversionShares, broad.AdjustedConversionShares)
			assert.GreaterOrEqual(t, broad.AdjustedConversionShares, none.OriginalConversionShares)

			// Weighted average prices sit between the new and original prices.
			for _, r := range []MechanismResult{narrow, broad} {
				assert.GreaterOrEqual(t, r.AdjustedConversionPrice, tc.px)
				assert.LessOrEqual(t, r.AdjustedConversionPrice, cs.OriginalPricePerShare)
			}
			assert.Equal(t, tc.px, fr.AdjustedConversionPrice)

			for _, r := range cmp.Results {
				assert.GreaterOrEqual(t, r.DilutionPct, 0.0)
				assert.LessOrEqual(t, r.DilutionPct, 1.0)
			}
		})
	}
}

func TestComputeAdjustment_FlatRoundIsIdempotent(t *testing.T) {
	cs, _ := referenceCase()
	cs.OptionPoolShares = 1_000_000
	dr := domain.DownRoundEvent{NewFinancingAmount: 4_000_000, NewFinancingPricePerShare: cs.OriginalPricePerShare}

	for _, m := range domain.AllMechanisms() {
		adj, err := ComputeAdjustment(cs, dr, m)
		require.NoError(t, err)
		assert.InDelta(t, cs.OriginalPricePerShare, adj.AdjustedConversionPrice, 1e-12, m)
		assert.False(t, adj.DownRound)
	}
}

func TestCompareMechanisms_Tiers(t *testing.T) {
	cs, dr := referenceCase()

	cmp, err := CompareMechanisms(cs, dr)
	require.NoError(t, err)
	require.Len(t, cmp.Results, 4)

	for i, m := range domain.AllMechanisms() {
		assert.Equal(t, m, cmp.Results[i].Mechanism)
	}

	none, _ := cmp.Get(domain.MechanismNone)
	assert.Equal(t, 0.0, none.Improvement)
	assert.Equal(t, TierLow, none.Tier)

	// NONE: 5M/(15M+5M) = 0.25, FR: 0.4 -> +0.15
	fr, _ := cmp.Get(domain.MechanismFullRatchet)
	assert.InDelta(t, 0.15, fr.Improvement, 1e-12)
	assert.Equal(t, TierHigh, fr.Tier)

	// Narrow: 6M/21M = 0.2857 -> +0.0357
	narrow, _ := cmp.Get(domain.MechanismWeightedAverageNarrow)
	assert.Equal(t, TierMedium, narrow.Tier)

	assert.Equal(t, domain.MechanismFullRatchet, cmp.Best().Mechanism)
}

func TestTierFor_Boundaries(t *testing.T) {
	assert.Equal(t, TierLow, tierFor(0.02))
	assert.Equal(t, TierMedium, tierFor(0.0200001))
	assert.Equal(t, TierMedium, tierFor(0.05))
	assert.Equal(t, TierHigh, tierFor(0.0500001))
}

func TestComputeAdjustment_InvalidInput(t *testing.T) {
	cs, dr := referenceCase()

	bad := cs
	bad.OriginalPricePerShare = 0
	_, err := ComputeAdjustment(bad, dr, domain.MechanismFullRatchet)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	badRound := dr
	badRound.NewFinancingPricePerShare = -1
	_, err = CompareMechanisms(cs, badRound)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = ComputeAdjustment(cs, dr, domain.ProtectionMechanism("SHARED_RATCHET"))
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestComputeAdjustment_ZeroShareBase(t *testing.T) {
	cs := domain.CapitalStructure{OriginalInvestment: 0, OriginalPricePerShare: 1}
	dr := domain.DownRoundEvent{NewFinancingAmount: 1, NewFinancingPricePerShare: 0.5}

	// Denominators stay positive because new shares are always issued.
	adj, err := ComputeAdjustment(cs, dr, domain.MechanismWeightedAverageNarrow)
	require.NoError(t, err)
	assert.Equal(t, 0.0, adj.DilutionPct)
}

func TestDilutionPct_ZeroDenominator(t *testing.T) {
	_, err := dilutionPct(0, 0, 0)
	assert.True(t, errors.Is(err, domain.ErrDivisionByZero))

	_, err = weightedAveragePrice(1, 0, 0, 0)
	assert.True(t, errors.Is(err, domain.ErrDivisionByZero))
}
