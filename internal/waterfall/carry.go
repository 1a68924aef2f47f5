package waterfall

import (
	"math"

	"fund-economics-lab/internal/domain"
)

// CarryResult is a single fund-level carried interest computation.
type CarryResult struct {
	TotalReturns    float64
	HurdleAmount    float64
	ExcessReturns   float64
	CarriedInterest float64
	CatchUp         float64
}

// ComputeCarriedInterest computes carry on the whole fund exiting at exitMultiple
// after holdingPeriodYears.
func ComputeCarriedInterest(fund domain.FundEconomics, holdingPeriodYears, exitMultiple float64) (*CarryResult, error) {
	r := domain.ValidateFundEconomics(fund)
	if !(holdingPeriodYears >= 0) || math.IsInf(holdingPeriodYears, 0) {
		r.Merge(invalid(domain.KindInvalidInput, "holdingPeriodYears", holdingPeriodYears))
	}
	if !(exitMultiple >= 0) || math.IsInf(exitMultiple, 0) {
		r.Merge(invalid(domain.KindDataConsistency, "exitMultiple", exitMultiple))
	}
	if err := r.Err(); err != nil {
		return nil, err
	}

	totalReturns := fund.FundSize * exitMultiple
	hurdle := hurdleAmount(fund.FundSize, fund.HurdleRate, holdingPeriodYears)
	excess := math.Max(0, totalReturns-hurdle)

	return &CarryResult{
		TotalReturns:    totalReturns,
		HurdleAmount:    hurdle,
		ExcessReturns:   excess,
		CarriedInterest: excess * fund.CarryRate,
		CatchUp:         excess * fund.CatchUpRate * *fund.CatchUpEfficiency,
	}, nil
}

// hurdleAmount compounds capital at the hurdle rate.
func hurdleAmount(capital, hurdleRate, years float64) float64 {
	return capital * math.Pow(1+hurdleRate, years)
}

func invalid(kind domain.ErrorKind, field string, v float64) *domain.ValidationResult {
	return &domain.ValidationResult{
		Valid:   false,
		Errors:  []domain.ErrorKind{kind},
		Details: []error{domain.NewError(kind, field, "must be >= 0, got %v", v)},
	}
}
