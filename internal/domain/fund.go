package domain

import "sort"

// FeeBasis is the capital amount management fees are charged on.
type FeeBasis string

const (
	BasisCommittedCapital FeeBasis = "committed_capital"
	BasisInvestedCapital  FeeBasis = "invested_capital"
	BasisNAV              FeeBasis = "nav"
)

// Valid reports whether b is a known fee basis.
func (b FeeBasis) Valid() bool {
	switch b {
	case BasisCommittedCapital, BasisInvestedCapital, BasisNAV:
		return true
	default:
		return false
	}
}

// WaterfallType selects how carried interest is distributed.
type WaterfallType string

const (
	WaterfallAmerican   WaterfallType = "AMERICAN"
	WaterfallEuropean   WaterfallType = "EUROPEAN"
	WaterfallDealByDeal WaterfallType = "DEAL_BY_DEAL"
)

// Valid reports whether w is a known waterfall type.
func (w WaterfallType) Valid() bool {
	switch w {
	case WaterfallAmerican, WaterfallEuropean, WaterfallDealByDeal:
		return true
	default:
		return false
	}
}

// DefaultCatchUpEfficiency is the conventional catch-up efficiency. Engines
// never read it; callers pass it explicitly through FundParams.
const DefaultCatchUpEfficiency = 0.8

// DeclineStep changes the management fee rate from EffectiveYear onward.
type DeclineStep struct {
	EffectiveYear int
	Rate          float64
}

// FeeSharing is a fee rate and the fraction of it offset to LPs.
type FeeSharing struct {
	Rate           float64
	LPSharingRatio float64
}

// FundParams are the raw fund terms supplied by the caller.
type FundParams struct {
	FundSize          float64
	ManagementFeeRate float64
	FeeBasis          FeeBasis
	DeclineSchedule   []DeclineStep // any order; sorted by NewFundEconomics
	CarryRate         float64
	HurdleRate        float64
	CatchUpRate       float64
	CatchUpEfficiency *float64 // required; nil is a configuration error
	WaterfallType     WaterfallType
	TransactionFee    FeeSharing
	MonitoringFee     FeeSharing
}

// FundEconomics are validated fund terms. DeclineSchedule is sorted ascending by
// EffectiveYear with unique years; engines only read it.
type FundEconomics struct {
	FundSize          float64
	ManagementFeeRate float64
	FeeBasis          FeeBasis
	DeclineSchedule   []DeclineStep
	CarryRate         float64
	HurdleRate        float64
	CatchUpRate       float64
	CatchUpEfficiency *float64
	WaterfallType     WaterfallType
	TransactionFee    FeeSharing
	MonitoringFee     FeeSharing
}

// NewFundEconomics validates p and returns fund terms with a sorted private copy
// of the decline schedule. The caller's slice is never modified.
func NewFundEconomics(p FundParams) (FundEconomics, error) {
	schedule := make([]DeclineStep, len(p.DeclineSchedule))
	copy(schedule, p.DeclineSchedule)
	sort.SliceStable(schedule, func(i, j int) bool {
		return schedule[i].EffectiveYear < schedule[j].EffectiveYear
	})

	var efficiency *float64
	if p.CatchUpEfficiency != nil {
		v := *p.CatchUpEfficiency
		efficiency = &v
	}

	f := FundEconomics{
		FundSize:          p.FundSize,
		ManagementFeeRate: p.ManagementFeeRate,
		FeeBasis:          p.FeeBasis,
		DeclineSchedule:   schedule,
		CarryRate:         p.CarryRate,
		HurdleRate:        p.HurdleRate,
		CatchUpRate:       p.CatchUpRate,
		CatchUpEfficiency: efficiency,
		WaterfallType:     p.WaterfallType,
		TransactionFee:    p.TransactionFee,
		MonitoringFee:     p.MonitoringFee,
	}

	if err := ValidateFundEconomics(f).Err(); err != nil {
		return FundEconomics{}, err
	}
	return f, nil
}

// DealExit is one realized portfolio exit, in realization order.
type DealExit struct {
	DealID          string
	InvestedCapital float64
	Proceeds        float64
	HoldingYears    float64
}

// PeerBenchmark holds peer-group average fee terms.
type PeerBenchmark struct {
	ManagementFeeRate float64
	CarryRate         float64
}
