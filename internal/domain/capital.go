package domain

// CapitalStructure describes an investor's position and the company's share base
// at the time of the original financing.
type CapitalStructure struct {
	OriginalInvestment        float64 // amount invested in the protected round
	OriginalPricePerShare     float64 // price paid per share, strictly positive
	ExistingSharesOutstanding float64 // issued common shares
	OptionPoolShares          float64 // reserved option pool
	ConvertibleSecurityShares float64 // shares issuable on conversion of other securities
}

// BroadShareBase returns existing shares plus option pool plus convertibles.
func (c CapitalStructure) BroadShareBase() float64 {
	return c.ExistingSharesOutstanding + c.OptionPoolShares + c.ConvertibleSecurityShares
}

// DownRoundEvent is a new financing priced per share.
type DownRoundEvent struct {
	NewFinancingAmount        float64
	NewFinancingPricePerShare float64
}

// ProtectionMechanism selects the anti-dilution adjustment formula.
type ProtectionMechanism string

const (
	MechanismNone                  ProtectionMechanism = "NONE"
	MechanismFullRatchet           ProtectionMechanism = "FULL_RATCHET"
	MechanismWeightedAverageNarrow ProtectionMechanism = "WEIGHTED_AVERAGE_NARROW"
	MechanismWeightedAverageBroad  ProtectionMechanism = "WEIGHTED_AVERAGE_BROAD"
)

// AllMechanisms returns every mechanism in comparison-table order.
func AllMechanisms() []ProtectionMechanism {
	return []ProtectionMechanism{
		MechanismNone,
		MechanismFullRatchet,
		MechanismWeightedAverageNarrow,
		MechanismWeightedAverageBroad,
	}
}

// Valid reports whether m is a known mechanism.
func (m ProtectionMechanism) Valid() bool {
	switch m {
	case MechanismNone, MechanismFullRatchet, MechanismWeightedAverageNarrow, MechanismWeightedAverageBroad:
		return true
	default:
		return false
	}
}
