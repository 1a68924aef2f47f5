package waterfall

import (
	"fund-economics-lab/internal/domain"
)

// Split is how a fee divides between LPs (as an offset) and the GP.
type Split struct {
	Base    float64
	Fee     float64
	LPShare float64
	GPShare float64
}

// FeeSplit splits base*rate by sharingRatio.
func FeeSplit(rate, sharingRatio, base float64) (Split, error) {
	r := &domain.ValidationResult{Valid: true}
	r.Merge(rateCheck("rate", rate))
	r.Merge(rateCheck("sharingRatio", sharingRatio))
	if !(base >= 0) {
		r.Merge(invalid(domain.KindDataConsistency, "base", base))
	}
	if err := r.Err(); err != nil {
		return Split{}, err
	}

	fee := base * rate
	return Split{
		Base:    base,
		Fee:     fee,
		LPShare: fee * sharingRatio,
		GPShare: fee * (1 - sharingRatio),
	}, nil
}

// TransactionFeeSplit splits the fund's transaction fee on a deal value.
func TransactionFeeSplit(fund domain.FundEconomics, dealValue float64) (Split, error) {
	return FeeSplit(fund.TransactionFee.Rate, fund.TransactionFee.LPSharingRatio, dealValue)
}

// MonitoringFeeSplit splits the fund's monitoring fee on a portfolio company base.
func MonitoringFeeSplit(fund domain.FundEconomics, base float64) (Split, error) {
	return FeeSplit(fund.MonitoringFee.Rate, fund.MonitoringFee.LPSharingRatio, base)
}

func rateCheck(field string, v float64) *domain.ValidationResult {
	if v >= 0 && v <= 1 {
		return nil
	}
	return &domain.ValidationResult{
		Valid:   false,
		Errors:  []domain.ErrorKind{domain.KindInvalidInput},
		Details: []error{domain.NewError(domain.KindInvalidInput, field, "rate must be within [0,1], got %v", v)},
	}
}
