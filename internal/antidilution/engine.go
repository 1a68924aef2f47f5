// Package antidilution computes conversion price adjustments for protected
// investors when a company raises money below the original price.
package antidilution

import (
	"fund-economics-lab/internal/domain"
)

// Tier buckets the dilution improvement a mechanism provides over no protection.
type Tier string

const (
	TierHigh   Tier = "HIGH"
	TierMedium Tier = "MEDIUM"
	TierLow    Tier = "LOW"
)

// Tier thresholds on improvement = dilutionPct(mechanism) - dilutionPct(NONE).
const (
	highImprovement   = 0.05
	mediumImprovement = 0.02
)

// Adjustment is the outcome of applying one mechanism to a financing.
type Adjustment struct {
	Mechanism                domain.ProtectionMechanism
	OriginalConversionShares float64
	NewSharesIssued          float64
	AdjustedConversionPrice  float64
	AdjustedConversionShares float64
	DilutionPct              float64 // ownership fraction in [0,1]
	EconomicImpact           float64 // value of extra shares at the new price
	DownRound                bool    // new price below original price
}

// MechanismResult is one row of a mechanism comparison.
type MechanismResult struct {
	Adjustment
	Improvement float64
	Tier        Tier
}

// Comparison holds one result per mechanism in domain.AllMechanisms order.
type Comparison struct {
	Results []MechanismResult
}

// Get returns the result for mechanism m.
func (c *Comparison) Get(m domain.ProtectionMechanism) (MechanismResult, bool) {
	for _, r := range c.Results {
		if r.Mechanism == m {
			return r, true
		}
	}
	return MechanismResult{}, false
}

// Best returns the mechanism with the largest improvement. Ties keep table order.
func (c *Comparison) Best() MechanismResult {
	var best MechanismResult
	for i, r := range c.Results {
		if i == 0 || r.Improvement > best.Improvement {
			best = r
		}
	}
	return best
}

func validate(cs domain.CapitalStructure, dr domain.DownRoundEvent) error {
	r := domain.ValidateCapitalStructure(cs)
	r.Merge(domain.ValidateDownRound(dr))
	return r.Err()
}

// ComputeAdjustment applies mechanism to the capital structure for the given financing.
func ComputeAdjustment(cs domain.CapitalStructure, dr domain.DownRoundEvent, mechanism domain.ProtectionMechanism) (*Adjustment, error) {
	if err := validate(cs, dr); err != nil {
		return nil, err
	}
	if err := domain.ValidateMechanism(mechanism).Err(); err != nil {
		return nil, err
	}
	return computeAdjustment(cs, dr, mechanism)
}

// CompareMechanisms computes every mechanism and tiers each against NONE.
func CompareMechanisms(cs domain.CapitalStructure, dr domain.DownRoundEvent) (*Comparison, error) {
	if err := validate(cs, dr); err != nil {
		return nil, err
	}

	mechanisms := domain.AllMechanisms()
	adjustments := make([]*Adjustment, len(mechanisms))
	var baseline float64
	for i, m := range mechanisms {
		adj, err := computeAdjustment(cs, dr, m)
		if err != nil {
			return nil, err
		}
		adjustments[i] = adj
		if m == domain.MechanismNone {
			baseline = adj.DilutionPct
		}
	}

	results := make([]MechanismResult, len(adjustments))
	for i, adj := range adjustments {
		improvement := adj.DilutionPct - baseline
		results[i] = MechanismResult{
			Adjustment:  *adj,
			Improvement: improvement,
			Tier:        tierFor(improvement),
		}
	}
	return &Comparison{Results: results}, nil
}

func tierFor(improvement float64) Tier {
	switch {
	case improvement > highImprovement:
		return TierHigh
	case improvement > mediumImprovement:
		return TierMedium
	default:
		return TierLow
	}
}

// computeAdjustment assumes validated inputs.
func computeAdjustment(cs domain.CapitalStructure, dr domain.DownRoundEvent, mechanism domain.ProtectionMechanism) (*Adjustment, error) {
	originalShares := cs.OriginalInvestment / cs.OriginalPricePerShare
	newShares := dr.NewFinancingAmount / dr.NewFinancingPricePerShare

	var price float64
	switch mechanism {
	case domain.MechanismNone:
		price = cs.OriginalPricePerShare
	case domain.MechanismFullRatchet:
		price = dr.NewFinancingPricePerShare
	case domain.MechanismWeightedAverageNarrow:
		p, err := weightedAveragePrice(cs.OriginalPricePerShare, cs.ExistingSharesOutstanding, dr.NewFinancingAmount, newShares)
		if err != nil {
			return nil, err
		}
		price = p
	case domain.MechanismWeightedAverageBroad:
		p, err := weightedAveragePrice(cs.OriginalPricePerShare, cs.BroadShareBase(), dr.NewFinancingAmount, newShares)
		if err != nil {
			return nil, err
		}
		price = p
	default:
		return nil, domain.NewError(domain.KindInvalidInput, "mechanism", "unknown protection mechanism %q", mechanism)
	}

	if price <= 0 {
		return nil, domain.NewError(domain.KindDivisionByZero, "adjustedConversionPrice", "adjusted price is %v", price)
	}
	adjustedShares := cs.OriginalInvestment / price

	dilution, err := dilutionPct(adjustedShares, cs.ExistingSharesOutstanding, newShares)
	if err != nil {
		return nil, err
	}

	return &Adjustment{
		Mechanism:                mechanism,
		OriginalConversionShares: originalShares,
		NewSharesIssued:          newShares,
		AdjustedConversionPrice:  price,
		AdjustedConversionShares: adjustedShares,
		DilutionPct:              dilution,
		EconomicImpact:           (adjustedShares - originalShares) * dr.NewFinancingPricePerShare,
		DownRound:                dr.NewFinancingPricePerShare < cs.OriginalPricePerShare,
	}, nil
}

// weightedAveragePrice blends the original price over base shares with the new money.
func weightedAveragePrice(originalPrice, baseShares, newAmount, newShares float64) (float64, error) {
	denominator := baseShares + newShares
	if denominator == 0 {
		return 0, domain.NewError(domain.KindDivisionByZero, "shareBase", "weighted average share base is zero")
	}
	return (originalPrice*baseShares + newAmount) / denominator, nil
}

// dilutionPct measures the holder's post-round ownership against the narrow
// share count (existing plus newly issued), whatever the mechanism.
func dilutionPct(shares, existingShares, newShares float64) (float64, error) {
	denominator := existingShares + newShares + shares
	if denominator == 0 {
		return 0, domain.NewError(domain.KindDivisionByZero, "dilutionPct", "post-round share count is zero")
	}
	return shares / denominator, nil
}
