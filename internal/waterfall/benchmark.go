package waterfall

import (
	"fund-economics-lab/internal/domain"
)

// Ranking places fund terms relative to the peer band.
type Ranking string

const (
	RankingAggressive   Ranking = "AGGRESSIVE"
	RankingMarket       Ranking = "MARKET"
	RankingConservative Ranking = "CONSERVATIVE"
)

// bandTolerance keeps the band boundary inclusive under float rounding,
// e.g. (0.022-0.02)/0.02 evaluating a hair above 0.1.
const bandTolerance = 1e-12

// MetricBenchmark is the comparison of one fee term.
type MetricBenchmark struct {
	FundRate    float64
	PeerRate    float64
	Variance    float64 // (fund - peer) / peer
	VariancePct float64 // Variance * 100
	Ranking     Ranking
}

// Benchmark compares a fund's fee terms with peer averages.
type Benchmark struct {
	ManagementFee MetricBenchmark
	Carry         MetricBenchmark
	Overall       Ranking // from the mean of both variances
}

// BenchmarkVariance ranks management fee and carry against peer averages.
func BenchmarkVariance(fund domain.FundEconomics, peer domain.PeerBenchmark, policy *domain.BenchmarkPolicy) (*Benchmark, error) {
	r := domain.ValidateFundEconomics(fund)
	r.Merge(domain.ValidatePeerBenchmark(peer))
	r.Merge(domain.ValidateBenchmarkPolicy(policy))
	if err := r.Err(); err != nil {
		return nil, err
	}

	fee, err := compareRate("peer.managementFeeRate", fund.ManagementFeeRate, peer.ManagementFeeRate, policy.Band)
	if err != nil {
		return nil, err
	}
	carry, err := compareRate("peer.carryRate", fund.CarryRate, peer.CarryRate, policy.Band)
	if err != nil {
		return nil, err
	}

	return &Benchmark{
		ManagementFee: fee,
		Carry:         carry,
		Overall:       rank((fee.Variance+carry.Variance)/2, policy.Band),
	}, nil
}

func compareRate(field string, fundRate, peerRate, band float64) (MetricBenchmark, error) {
	if peerRate == 0 {
		return MetricBenchmark{}, domain.NewError(domain.KindDivisionByZero, field, "peer average is zero")
	}
	variance := (fundRate - peerRate) / peerRate
	return MetricBenchmark{
		FundRate:    fundRate,
		PeerRate:    peerRate,
		Variance:    variance,
		VariancePct: variance * 100,
		Ranking:     rank(variance, band),
	}, nil
}

// rank is MARKET within ±band inclusive.
func rank(variance, band float64) Ranking {
	switch {
	case variance > band+bandTolerance:
		return RankingAggressive
	case variance < -band-bandTolerance:
		return RankingConservative
	default:
		return RankingMarket
	}
}
