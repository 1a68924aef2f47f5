package waterfall

import (
	"math"

	"fund-economics-lab/internal/domain"
)

// State is a distribution waterfall state.
type State string

const (
	StateAccruing          State = "ACCRUING"
	StateHurdleMet         State = "HURDLE_MET"
	StateCatchUp           State = "CATCH_UP"
	StateCarryDistribution State = "CARRY_DISTRIBUTION"
	StateClawbackPending   State = "CLAWBACK_PENDING"
	StateWoundDown         State = "WOUND_DOWN"
)

// transitions lists the legal next states for each state.
var transitions = map[State][]State{
	StateAccruing:          {StateAccruing, StateHurdleMet, StateClawbackPending, StateWoundDown},
	StateHurdleMet:         {StateCatchUp, StateCarryDistribution},
	StateCatchUp:           {StateCarryDistribution},
	StateCarryDistribution: {StateAccruing, StateClawbackPending, StateWoundDown},
	StateClawbackPending:   {StateAccruing, StateClawbackPending, StateWoundDown},
	StateWoundDown:         nil,
}

// shortfallTolerance absorbs float noise when comparing carry paid to entitlement.
const shortfallTolerance = 1e-9

// Step records one waterfall event: a deal exit, or the final wind-down.
type Step struct {
	DealID              string // empty for wind-down
	Path                []State
	State               State
	Proceeds            float64
	Hurdle              float64
	Excess              float64
	CumulativeProceeds  float64
	CumulativeHurdle    float64
	CatchUp             float64 // paid in this step
	Carry               float64 // paid in this step
	CumulativeCarryPaid float64
	ClawbackReserve     float64
}

// Result is the full waterfall run.
type Result struct {
	WaterfallType   domain.WaterfallType
	Steps           []Step
	FinalState      State
	TotalInvested   float64
	TotalProceeds   float64
	TotalHurdle     float64
	ExcessReturns   float64
	CarryPaid       float64 // gross carry distributed before reconciliation
	CatchUpPaid     float64
	Entitlement     float64 // carry the fund-level result supports
	Clawback        float64
	NetCarry        float64
	LPDistributions float64
}

// machine walks the state graph and rejects illegal transitions.
type machine struct {
	state State
	path  []State
}

func newMachine() *machine {
	return &machine{state: StateAccruing}
}

func (m *machine) begin() {
	m.path = []State{m.state}
}

func (m *machine) advance(to State) error {
	for _, next := range transitions[m.state] {
		if next == to {
			m.state = to
			m.path = append(m.path, to)
			return nil
		}
	}
	return domain.NewError(domain.KindDataConsistency, "waterfall", "illegal transition %s -> %s", m.state, to)
}

// RunWaterfall distributes realized exits according to fund.WaterfallType.
func RunWaterfall(fund domain.FundEconomics, exits []domain.DealExit) (*Result, error) {
	r := domain.ValidateFundEconomics(fund)
	r.Merge(domain.ValidateDealExits(exits))
	if err := r.Err(); err != nil {
		return nil, err
	}

	switch fund.WaterfallType {
	case domain.WaterfallEuropean:
		return runEuropean(fund, exits)
	case domain.WaterfallAmerican:
		return runPerDeal(fund, exits, true)
	case domain.WaterfallDealByDeal:
		return runPerDeal(fund, exits, false)
	default:
		return nil, domain.NewError(domain.KindInvalidInput, "waterfallType", "unknown waterfall type %q", fund.WaterfallType)
	}
}

// runEuropean evaluates the hurdle once, at wind-down, against whole-fund returns.
func runEuropean(fund domain.FundEconomics, exits []domain.DealExit) (*Result, error) {
	res := &Result{WaterfallType: fund.WaterfallType}
	m := newMachine()

	var maxYears float64
	for _, e := range exits {
		m.begin()
		if err := m.advance(StateAccruing); err != nil {
			return nil, err
		}
		res.TotalInvested += e.InvestedCapital
		res.TotalProceeds += e.Proceeds
		maxYears = math.Max(maxYears, e.HoldingYears)
		res.Steps = append(res.Steps, Step{
			DealID:             e.DealID,
			Path:               m.path,
			State:              m.state,
			Proceeds:           e.Proceeds,
			CumulativeProceeds: res.TotalProceeds,
		})
	}

	res.TotalHurdle = hurdleAmount(res.TotalInvested, fund.HurdleRate, maxYears)
	res.ExcessReturns = math.Max(0, res.TotalProceeds-res.TotalHurdle)

	final := Step{
		CumulativeProceeds: res.TotalProceeds,
		CumulativeHurdle:   res.TotalHurdle,
		Hurdle:             res.TotalHurdle,
		Excess:             res.ExcessReturns,
	}
	m.begin()
	if res.ExcessReturns > 0 {
		if err := m.advance(StateHurdleMet); err != nil {
			return nil, err
		}
		if fund.CatchUpRate > 0 {
			if err := m.advance(StateCatchUp); err != nil {
				return nil, err
			}
			final.CatchUp = res.ExcessReturns * fund.CatchUpRate * *fund.CatchUpEfficiency
		}
		if err := m.advance(StateCarryDistribution); err != nil {
			return nil, err
		}
		final.Carry = res.ExcessReturns * fund.CarryRate
	}
	if err := m.advance(StateWoundDown); err != nil {
		return nil, err
	}

	res.CarryPaid = final.Carry
	res.CatchUpPaid = final.CatchUp
	res.Entitlement = final.Carry
	final.CumulativeCarryPaid = res.CarryPaid
	final.Path = m.path
	final.State = m.state
	res.Steps = append(res.Steps, final)

	return finish(res, m), nil
}

// runPerDeal pays carry deal by deal. With clawback set (AMERICAN) a deal only
// pays when cumulative fund performance clears the cumulative hurdle, and any
// carry paid above the fund-level entitlement is reserved and reconciled at
// wind-down. Without it (DEAL_BY_DEAL) every deal stands alone.
func runPerDeal(fund domain.FundEconomics, exits []domain.DealExit, clawback bool) (*Result, error) {
	res := &Result{WaterfallType: fund.WaterfallType}
	m := newMachine()

	for _, e := range exits {
		m.begin()
		res.TotalInvested += e.InvestedCapital
		res.TotalProceeds += e.Proceeds

		dealHurdle := hurdleAmount(e.InvestedCapital, fund.HurdleRate, e.HoldingYears)
		res.TotalHurdle += dealHurdle
		dealExcess := math.Max(0, e.Proceeds-dealHurdle)

		step := Step{
			DealID:             e.DealID,
			Proceeds:           e.Proceeds,
			Hurdle:             dealHurdle,
			Excess:             dealExcess,
			CumulativeProceeds: res.TotalProceeds,
			CumulativeHurdle:   res.TotalHurdle,
		}

		pays := dealExcess > 0
		if clawback {
			pays = pays && res.TotalProceeds >= res.TotalHurdle
		}

		if pays {
			if m.state == StateClawbackPending {
				if err := m.advance(StateAccruing); err != nil {
					return nil, err
				}
			}
			if m.state == StateCarryDistribution {
				if err := m.advance(StateAccruing); err != nil {
					return nil, err
				}
			}
			if err := m.advance(StateHurdleMet); err != nil {
				return nil, err
			}
			if fund.CatchUpRate > 0 {
				if err := m.advance(StateCatchUp); err != nil {
					return nil, err
				}
				step.CatchUp = dealExcess * fund.CatchUpRate * *fund.CatchUpEfficiency
			}
			if err := m.advance(StateCarryDistribution); err != nil {
				return nil, err
			}
			step.Carry = dealExcess * fund.CarryRate
			res.CarryPaid += step.Carry
			res.CatchUpPaid += step.CatchUp
		} else if m.state != StateClawbackPending {
			if err := m.advance(StateAccruing); err != nil {
				return nil, err
			}
		}

		if clawback {
			entitlement := fund.CarryRate * math.Max(0, res.TotalProceeds-res.TotalHurdle)
			shortfall := res.CarryPaid - entitlement
			if shortfall > shortfallTolerance {
				if err := m.advance(StateClawbackPending); err != nil {
					return nil, err
				}
				step.ClawbackReserve = shortfall
			} else if m.state == StateClawbackPending {
				if err := m.advance(StateAccruing); err != nil {
					return nil, err
				}
			}
		}

		step.CumulativeCarryPaid = res.CarryPaid
		step.Path = m.path
		step.State = m.state
		res.Steps = append(res.Steps, step)
	}

	res.ExcessReturns = math.Max(0, res.TotalProceeds-res.TotalHurdle)
	if clawback {
		res.Entitlement = fund.CarryRate * res.ExcessReturns
		res.Clawback = math.Max(0, res.CarryPaid-res.Entitlement)
		if res.Clawback <= shortfallTolerance {
			res.Clawback = 0
		}
	} else {
		res.Entitlement = res.CarryPaid
	}

	m.begin()
	if err := m.advance(StateWoundDown); err != nil {
		return nil, err
	}
	res.Steps = append(res.Steps, Step{
		Path:                m.path,
		State:               m.state,
		CumulativeProceeds:  res.TotalProceeds,
		CumulativeHurdle:    res.TotalHurdle,
		Excess:              res.ExcessReturns,
		CumulativeCarryPaid: res.CarryPaid,
	})

	return finish(res, m), nil
}

func finish(res *Result, m *machine) *Result {
	res.FinalState = m.state
	res.NetCarry = res.CarryPaid - res.Clawback
	res.LPDistributions = res.TotalProceeds - res.NetCarry
	return res
}
