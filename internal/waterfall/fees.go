// Package waterfall projects fund economics: management fees, carried interest,
// the distribution waterfall, fee splits, and peer benchmarking.
package waterfall

import (
	"fund-economics-lab/internal/domain"
)

// BasisProvider supplies the fee basis amount for a fund year when the basis is
// not committed capital. Implementations live outside the engine.
type BasisProvider interface {
	BasisAmount(year int) (float64, error)
}

// BasisFunc adapts a function to BasisProvider.
type BasisFunc func(year int) (float64, error)

// BasisAmount calls f(year).
func (f BasisFunc) BasisAmount(year int) (float64, error) {
	return f(year)
}

// StaticBasis is a per-year amount table, year 1 at index 0.
type StaticBasis []float64

// BasisAmount returns the amount for year, or an error past the table end.
func (s StaticBasis) BasisAmount(year int) (float64, error) {
	if year < 1 || year > len(s) {
		return 0, domain.NewError(domain.KindInvalidInput, "basis", "no basis amount for year %d", year)
	}
	return s[year-1], nil
}

// FeeYear is one projected year of management fees.
type FeeYear struct {
	Year  int
	Rate  float64
	Basis float64
	Fee   float64
}

// FeeSummary totals a projection.
type FeeSummary struct {
	Years         int
	TotalFees     float64
	AverageRate   float64 // mean of per-year rates
	EffectiveRate float64 // total fees over total basis
}

// RateForYear returns the rate of the decline-schedule entry with the largest
// EffectiveYear <= year, or the base management fee rate if none qualifies.
// The schedule is read only.
func RateForYear(fund domain.FundEconomics, year int) float64 {
	rate := fund.ManagementFeeRate
	for _, step := range fund.DeclineSchedule {
		if step.EffectiveYear > year {
			break
		}
		rate = step.Rate
	}
	return rate
}

// ProjectManagementFees projects fees for years 1..termYears. basis may be nil
// for committed-capital funds and is required otherwise.
func ProjectManagementFees(fund domain.FundEconomics, termYears int, basis BasisProvider) ([]FeeYear, error) {
	if err := domain.ValidateFundEconomics(fund).Err(); err != nil {
		return nil, err
	}
	if termYears < 0 {
		return nil, domain.NewError(domain.KindInvalidInput, "termYears", "must be >= 0, got %d", termYears)
	}
	if fund.FeeBasis != domain.BasisCommittedCapital && basis == nil {
		return nil, domain.NewError(domain.KindConfiguration, "basis",
			"fee basis %q requires a per-year amount provider", fund.FeeBasis)
	}

	// Resolve every basis amount before computing any fee.
	amounts := make([]float64, termYears)
	for i := range amounts {
		year := i + 1
		if fund.FeeBasis == domain.BasisCommittedCapital {
			amounts[i] = fund.FundSize
			continue
		}
		amt, err := basis.BasisAmount(year)
		if err != nil {
			return nil, err
		}
		if !(amt >= 0) {
			return nil, domain.NewError(domain.KindDataConsistency, "basis",
				"year %d: basis amount must be >= 0, got %v", year, amt)
		}
		amounts[i] = amt
	}

	out := make([]FeeYear, termYears)
	for i, amt := range amounts {
		year := i + 1
		rate := RateForYear(fund, year)
		out[i] = FeeYear{
			Year:  year,
			Rate:  rate,
			Basis: amt,
			Fee:   amt * rate,
		}
	}
	return out, nil
}

// SummarizeFees totals a projection.
func SummarizeFees(years []FeeYear) FeeSummary {
	s := FeeSummary{Years: len(years)}
	if len(years) == 0 {
		return s
	}

	var rateSum, basisSum float64
	for _, y := range years {
		s.TotalFees += y.Fee
		rateSum += y.Rate
		basisSum += y.Basis
	}
	s.AverageRate = rateSum / float64(len(years))
	if basisSum > 0 {
		s.EffectiveRate = s.TotalFees / basisSum
	}
	return s
}
