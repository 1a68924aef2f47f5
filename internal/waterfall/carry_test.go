package waterfall

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fund-economics-lab/internal/domain"
)

func TestComputeCarriedInterest(t *testing.T) {
	fund := testFund(t, nil)

	res, err := ComputeCarriedInterest(fund, 5, 2.5)
	require.NoError(t, err)

	hurdle := 100_000_000 * math.Pow(1.08, 5)
	excess := 250_000_000 - hurdle
	assert.InDelta(t, 250_000_000, res.TotalReturns, 1e-6)
	assert.InDelta(t, hurdle, res.HurdleAmount, 1e-6)
	assert.InDelta(t, excess, res.ExcessReturns, 1e-6)
	assert.InDelta(t, excess*0.2, res.CarriedInterest, 1e-6)
	assert.InDelta(t, excess*1.0*0.8, res.CatchUp, 1e-6)
}

func TestComputeCarriedInterest_BelowHurdle(t *testing.T) {
	fund := testFund(t, nil)

	for _, multiple := range []float64{0, 0.5, 1.0, math.Pow(1.08, 5)} {
		res, err := ComputeCarriedInterest(fund, 5, multiple)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.ExcessReturns, 0.0)
		assert.LessOrEqual(t, res.TotalReturns, res.HurdleAmount+1e-6)
		assert.InDelta(t, 0, res.CarriedInterest, 1e-6)
	}
}

func TestComputeCarriedInterest_Errors(t *testing.T) {
	fund := testFund(t, nil)

	_, err := ComputeCarriedInterest(fund, 5, -1)
	assert.True(t, errors.Is(err, domain.ErrDataConsistency))

	_, err = ComputeCarriedInterest(fund, -2, 2)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	missing := fund
	missing.CatchUpEfficiency = nil
	_, err = ComputeCarriedInterest(missing, 5, 2)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}
