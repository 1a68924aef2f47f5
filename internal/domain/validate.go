package domain

import "math"

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func positive(v float64) bool {
	return finite(v) && v > 0
}

func nonNegative(v float64) bool {
	return finite(v) && v >= 0
}

func isRate(v float64) bool {
	return finite(v) && v >= 0 && v <= 1
}

func (r *ValidationResult) requireRate(field string, v float64) {
	if !isRate(v) {
		r.add(KindInvalidInput, field, "rate must be within [0,1], got %v", v)
	}
}

func (r *ValidationResult) requirePositive(field string, v float64) {
	if !positive(v) {
		r.add(KindInvalidInput, field, "must be > 0, got %v", v)
	}
}

func (r *ValidationResult) requireNonNegative(kind ErrorKind, field string, v float64) {
	if !nonNegative(v) {
		r.add(kind, field, "must be >= 0, got %v", v)
	}
}

// ValidateCapitalStructure checks share counts and the original price.
func ValidateCapitalStructure(c CapitalStructure) *ValidationResult {
	r := newValidation()
	r.requireNonNegative(KindInvalidInput, "originalInvestment", c.OriginalInvestment)
	r.requirePositive("originalPricePerShare", c.OriginalPricePerShare)
	r.requireNonNegative(KindInvalidInput, "existingSharesOutstanding", c.ExistingSharesOutstanding)
	r.requireNonNegative(KindInvalidInput, "optionPoolShares", c.OptionPoolShares)
	r.requireNonNegative(KindInvalidInput, "convertibleSecurityShares", c.ConvertibleSecurityShares)
	return r
}

// ValidateDownRound checks the new financing terms.
func ValidateDownRound(d DownRoundEvent) *ValidationResult {
	r := newValidation()
	r.requirePositive("newFinancingAmount", d.NewFinancingAmount)
	r.requirePositive("newFinancingPricePerShare", d.NewFinancingPricePerShare)
	return r
}

// ValidateMechanism checks that m is a known protection mechanism.
func ValidateMechanism(m ProtectionMechanism) *ValidationResult {
	r := newValidation()
	if !m.Valid() {
		r.add(KindInvalidInput, "mechanism", "unknown protection mechanism %q", m)
	}
	return r
}

// ValidateConversionInputs checks the holder-side conversion facts.
func ValidateConversionInputs(in ConversionInputs) *ValidationResult {
	r := newValidation()
	r.requireNonNegative(KindInvalidInput, "originalInvestment", in.OriginalInvestment)
	r.requireNonNegative(KindInvalidInput, "totalSharesOutstanding", in.TotalSharesOutstanding)
	r.requireNonNegative(KindInvalidInput, "liquidationPreferenceAmount", in.LiquidationPreferenceAmount)
	r.requireNonNegative(KindDataConsistency, "currentCompanyValuation", in.CurrentCompanyValuation)
	r.requirePositive("conversionPrice", in.Right.ConversionPrice)
	r.requirePositive("conversionRatio", in.Right.ConversionRatio)

	switch in.Right.ConversionType {
	case ConversionOptional, ConversionMandatory:
	default:
		r.add(KindInvalidInput, "conversionType", "unknown conversion type %q", in.Right.ConversionType)
	}

	if t := in.Right.Triggers; t != nil {
		r.requireNonNegative(KindInvalidInput, "triggers.ipoValuation", t.IPOValuation)
		r.requireNonNegative(KindInvalidInput, "triggers.ipoPrice", t.IPOPrice)
		r.requireNonNegative(KindInvalidInput, "triggers.qualifiedFinancingMinimum", t.QualifiedFinancingMinimum)
		r.requireNonNegative(KindInvalidInput, "triggers.qualifiedFinancingPrice", t.QualifiedFinancingPrice)
	}
	return r
}

// ValidateConversionScenario checks one exit scenario.
func ValidateConversionScenario(s ConversionScenario) *ValidationResult {
	r := newValidation()
	r.requireNonNegative(KindDataConsistency, "companyValuation", s.CompanyValuation)
	r.requireNonNegative(KindInvalidInput, "timeToConversionYears", s.TimeToConversionYears)
	r.requireNonNegative(KindDataConsistency, "expectedReturnMultiple", s.ExpectedReturnMultiple)
	if !s.TriggerType.Valid() {
		r.add(KindInvalidInput, "triggerType", "unknown trigger type %q", s.TriggerType)
	}
	return r
}

// ValidateFundEconomics checks rates, enums, and that the decline schedule is
// already sorted with unique years. It never reorders the schedule.
func ValidateFundEconomics(f FundEconomics) *ValidationResult {
	r := newValidation()
	r.requireNonNegative(KindInvalidInput, "fundSize", f.FundSize)
	r.requireRate("managementFeeRate", f.ManagementFeeRate)
	r.requireRate("carryRate", f.CarryRate)
	r.requireRate("hurdleRate", f.HurdleRate)
	r.requireRate("catchUpRate", f.CatchUpRate)
	r.requireRate("transactionFee.rate", f.TransactionFee.Rate)
	r.requireRate("transactionFee.lpSharingRatio", f.TransactionFee.LPSharingRatio)
	r.requireRate("monitoringFee.rate", f.MonitoringFee.Rate)
	r.requireRate("monitoringFee.lpSharingRatio", f.MonitoringFee.LPSharingRatio)

	if f.CatchUpEfficiency == nil {
		r.add(KindConfiguration, "catchUpEfficiency", "catch-up efficiency must be set explicitly")
	} else {
		r.requireRate("catchUpEfficiency", *f.CatchUpEfficiency)
	}

	if !f.FeeBasis.Valid() {
		r.add(KindInvalidInput, "feeBasis", "unknown fee basis %q", f.FeeBasis)
	}
	if !f.WaterfallType.Valid() {
		r.add(KindInvalidInput, "waterfallType", "unknown waterfall type %q", f.WaterfallType)
	}

	for i, step := range f.DeclineSchedule {
		if step.EffectiveYear < 1 {
			r.add(KindInvalidInput, "declineSchedule", "entry %d: effective year must be >= 1, got %d", i, step.EffectiveYear)
		}
		r.requireRate("declineSchedule.rate", step.Rate)
		if i > 0 && step.EffectiveYear <= f.DeclineSchedule[i-1].EffectiveYear {
			r.add(KindInvalidInput, "declineSchedule",
				"entries must be strictly increasing by year: %d follows %d",
				step.EffectiveYear, f.DeclineSchedule[i-1].EffectiveYear)
		}
	}
	return r
}

// ValidateDealExits checks realized exits for the waterfall.
func ValidateDealExits(exits []DealExit) *ValidationResult {
	r := newValidation()
	seen := make(map[string]struct{}, len(exits))
	for i, e := range exits {
		if e.DealID == "" {
			r.add(KindInvalidInput, "dealId", "exit %d: deal id is empty", i)
		} else if _, dup := seen[e.DealID]; dup {
			r.add(KindInvalidInput, "dealId", "exit %d: duplicate deal id %q", i, e.DealID)
		}
		seen[e.DealID] = struct{}{}
		r.requireNonNegative(KindInvalidInput, "investedCapital", e.InvestedCapital)
		r.requireNonNegative(KindDataConsistency, "proceeds", e.Proceeds)
		r.requireNonNegative(KindInvalidInput, "holdingYears", e.HoldingYears)
	}
	return r
}

// ValidatePeerBenchmark checks peer averages are rates.
func ValidatePeerBenchmark(p PeerBenchmark) *ValidationResult {
	r := newValidation()
	r.requireRate("peer.managementFeeRate", p.ManagementFeeRate)
	r.requireRate("peer.carryRate", p.CarryRate)
	return r
}

// ValidateDiscountPolicy reports a configuration error for a missing policy.
func ValidateDiscountPolicy(p *DiscountPolicy) *ValidationResult {
	r := newValidation()
	if p == nil {
		r.add(KindConfiguration, "discountPolicy", "discount rate must be set explicitly")
		return r
	}
	r.requireRate("annualDiscountRate", p.AnnualDiscountRate)
	return r
}

// ValidateBenchmarkPolicy reports a configuration error for a missing policy.
func ValidateBenchmarkPolicy(p *BenchmarkPolicy) *ValidationResult {
	r := newValidation()
	if p == nil {
		r.add(KindConfiguration, "benchmarkPolicy", "benchmark band must be set explicitly")
		return r
	}
	r.requireRate("band", p.Band)
	return r
}
