// Package inputs loads scenario files into engine inputs.
//
// A scenario file is YAML with optional top-level sections capital_structure,
// conversion, fund and peer, plus a scenarios list. Unknown keys are rejected.
package inputs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"fund-economics-lab/internal/domain"
	"fund-economics-lab/internal/orchestrator"
	"fund-economics-lab/internal/waterfall"
)

// Defaults fill fund terms a file may omit.
type Defaults struct {
	CatchUpEfficiency float64
}

// Inputs is a decoded scenario file, ready for orchestrator.Options.
type Inputs struct {
	CapStructure *domain.CapitalStructure
	Conversion   *domain.ConversionInputs
	Fund         *domain.FundEconomics
	Peer         *domain.PeerBenchmark
	TermYears    int
	Basis        waterfall.BasisProvider // nil unless the file lists basis_amounts
	Scenarios    []orchestrator.Scenario
}

type file struct {
	CapitalStructure *capitalFile    `yaml:"capital_structure"`
	Conversion       *conversionFile `yaml:"conversion"`
	Fund             *fundFile       `yaml:"fund"`
	Peer             *peerFile       `yaml:"peer"`
	Scenarios        []scenarioFile  `yaml:"scenarios"`
}

type capitalFile struct {
	OriginalInvestment        float64 `yaml:"original_investment"`
	OriginalPricePerShare     float64 `yaml:"original_price_per_share"`
	ExistingSharesOutstanding float64 `yaml:"existing_shares_outstanding"`
	OptionPoolShares          float64 `yaml:"option_pool_shares"`
	ConvertibleSecurityShares float64 `yaml:"convertible_security_shares"`
}

type conversionFile struct {
	OriginalInvestment          float64   `yaml:"original_investment"`
	TotalSharesOutstanding      float64   `yaml:"total_shares_outstanding"`
	LiquidationPreferenceAmount float64   `yaml:"liquidation_preference_amount"`
	CurrentCompanyValuation     float64   `yaml:"current_company_valuation"`
	Right                       rightFile `yaml:"right"`
}

type rightFile struct {
	ConversionPrice float64       `yaml:"conversion_price"`
	ConversionRatio float64       `yaml:"conversion_ratio"`
	ConversionType  string        `yaml:"conversion_type"`
	Triggers        *triggersFile `yaml:"triggers"`
}

type triggersFile struct {
	IPOValuation              float64 `yaml:"ipo_valuation"`
	IPOPrice                  float64 `yaml:"ipo_price"`
	QualifiedFinancingMinimum float64 `yaml:"qualified_financing_minimum"`
	QualifiedFinancingPrice   float64 `yaml:"qualified_financing_price"`
}

type fundFile struct {
	FundSize          float64           `yaml:"fund_size"`
	ManagementFeeRate float64           `yaml:"management_fee_rate"`
	FeeBasis          string            `yaml:"fee_basis"`
	DeclineSchedule   []declineStepFile `yaml:"decline_schedule"`
	CarryRate         float64           `yaml:"carry_rate"`
	HurdleRate        float64           `yaml:"hurdle_rate"`
	CatchUpRate       float64           `yaml:"catch_up_rate"`
	CatchUpEfficiency *float64          `yaml:"catch_up_efficiency"`
	WaterfallType     string            `yaml:"waterfall_type"`
	TransactionFee    feeSharingFile    `yaml:"transaction_fee"`
	MonitoringFee     feeSharingFile    `yaml:"monitoring_fee"`
	TermYears         int               `yaml:"term_years"`
	BasisAmounts      []float64         `yaml:"basis_amounts"`
}

type declineStepFile struct {
	EffectiveYear int     `yaml:"effective_year"`
	Rate          float64 `yaml:"rate"`
}

type feeSharingFile struct {
	Rate           float64 `yaml:"rate"`
	LPSharingRatio float64 `yaml:"lp_sharing_ratio"`
}

type peerFile struct {
	ManagementFeeRate float64 `yaml:"management_fee_rate"`
	CarryRate         float64 `yaml:"carry_rate"`
}

type scenarioFile struct {
	Name       string              `yaml:"name"`
	DownRound  *downRoundFile      `yaml:"down_round"`
	Mechanism  string              `yaml:"mechanism"`
	Conversion *conversionCaseFile `yaml:"conversion"`
	Carry      *carryFile          `yaml:"carry"`
	Exits      []exitFile          `yaml:"exits"`
}

type downRoundFile struct {
	NewFinancingAmount        float64 `yaml:"new_financing_amount"`
	NewFinancingPricePerShare float64 `yaml:"new_financing_price_per_share"`
}

type conversionCaseFile struct {
	CompanyValuation       float64 `yaml:"company_valuation"`
	TimeToConversionYears  float64 `yaml:"time_to_conversion_years"`
	TriggerType            string  `yaml:"trigger_type"`
	ExpectedReturnMultiple float64 `yaml:"expected_return_multiple"`
}

type carryFile struct {
	HoldingYears float64 `yaml:"holding_years"`
	ExitMultiple float64 `yaml:"exit_multiple"`
}

type exitFile struct {
	DealID          string  `yaml:"deal_id"`
	InvestedCapital float64 `yaml:"invested_capital"`
	Proceeds        float64 `yaml:"proceeds"`
	HoldingYears    float64 `yaml:"holding_years"`
}

// Load reads and decodes the scenario file at path.
func Load(path string, defaults Defaults) (*Inputs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	in, err := Parse(data, defaults)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return in, nil
}

// Parse decodes a scenario document. Fund terms are validated here because
// domain.NewFundEconomics validates on construction; every other section is
// validated by the orchestrator before evaluation.
func Parse(data []byte, defaults Defaults) (*Inputs, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("scenario file is empty")
		}
		return nil, fmt.Errorf("decode scenario file: %w", err)
	}
	if len(f.Scenarios) == 0 {
		return nil, errors.New("scenario file lists no scenarios")
	}

	in := &Inputs{}
	if c := f.CapitalStructure; c != nil {
		in.CapStructure = &domain.CapitalStructure{
			OriginalInvestment:        c.OriginalInvestment,
			OriginalPricePerShare:     c.OriginalPricePerShare,
			ExistingSharesOutstanding: c.ExistingSharesOutstanding,
			OptionPoolShares:          c.OptionPoolShares,
			ConvertibleSecurityShares: c.ConvertibleSecurityShares,
		}
	}
	if c := f.Conversion; c != nil {
		in.Conversion = c.toDomain()
	}
	if fund := f.Fund; fund != nil {
		fe, err := fund.toDomain(defaults)
		if err != nil {
			return nil, fmt.Errorf("fund: %w", err)
		}
		in.Fund = &fe
		in.TermYears = fund.TermYears
		if len(fund.BasisAmounts) > 0 {
			in.Basis = waterfall.StaticBasis(fund.BasisAmounts)
		}
	}
	if p := f.Peer; p != nil {
		in.Peer = &domain.PeerBenchmark{ManagementFeeRate: p.ManagementFeeRate, CarryRate: p.CarryRate}
	}

	in.Scenarios = make([]orchestrator.Scenario, len(f.Scenarios))
	for i, sc := range f.Scenarios {
		in.Scenarios[i] = sc.toScenario()
	}
	return in, nil
}

func (c *conversionFile) toDomain() *domain.ConversionInputs {
	ci := &domain.ConversionInputs{
		OriginalInvestment:          c.OriginalInvestment,
		TotalSharesOutstanding:      c.TotalSharesOutstanding,
		LiquidationPreferenceAmount: c.LiquidationPreferenceAmount,
		CurrentCompanyValuation:     c.CurrentCompanyValuation,
		Right: domain.ConversionRight{
			ConversionPrice: c.Right.ConversionPrice,
			ConversionRatio: c.Right.ConversionRatio,
			ConversionType:  domain.ConversionType(c.Right.ConversionType),
		},
	}
	if ci.Right.ConversionType == "" {
		ci.Right.ConversionType = domain.ConversionOptional
	}
	if t := c.Right.Triggers; t != nil {
		ci.Right.Triggers = &domain.AutomaticTriggers{
			IPOValuation:              t.IPOValuation,
			IPOPrice:                  t.IPOPrice,
			QualifiedFinancingMinimum: t.QualifiedFinancingMinimum,
			QualifiedFinancingPrice:   t.QualifiedFinancingPrice,
		}
	}
	return ci
}

func (f *fundFile) toDomain(defaults Defaults) (domain.FundEconomics, error) {
	efficiency := defaults.CatchUpEfficiency
	if f.CatchUpEfficiency != nil {
		efficiency = *f.CatchUpEfficiency
	}

	schedule := make([]domain.DeclineStep, len(f.DeclineSchedule))
	for i, s := range f.DeclineSchedule {
		schedule[i] = domain.DeclineStep{EffectiveYear: s.EffectiveYear, Rate: s.Rate}
	}

	basis := domain.FeeBasis(f.FeeBasis)
	if basis == "" {
		basis = domain.BasisCommittedCapital
	}

	return domain.NewFundEconomics(domain.FundParams{
		FundSize:          f.FundSize,
		ManagementFeeRate: f.ManagementFeeRate,
		FeeBasis:          basis,
		DeclineSchedule:   schedule,
		CarryRate:         f.CarryRate,
		HurdleRate:        f.HurdleRate,
		CatchUpRate:       f.CatchUpRate,
		CatchUpEfficiency: &efficiency,
		WaterfallType:     domain.WaterfallType(f.WaterfallType),
		TransactionFee:    domain.FeeSharing{Rate: f.TransactionFee.Rate, LPSharingRatio: f.TransactionFee.LPSharingRatio},
		MonitoringFee:     domain.FeeSharing{Rate: f.MonitoringFee.Rate, LPSharingRatio: f.MonitoringFee.LPSharingRatio},
	})
}

func (s *scenarioFile) toScenario() orchestrator.Scenario {
	sc := orchestrator.Scenario{
		Name:      s.Name,
		Mechanism: domain.ProtectionMechanism(s.Mechanism),
	}
	if d := s.DownRound; d != nil {
		sc.DownRound = &domain.DownRoundEvent{
			NewFinancingAmount:        d.NewFinancingAmount,
			NewFinancingPricePerShare: d.NewFinancingPricePerShare,
		}
	}
	if c := s.Conversion; c != nil {
		sc.Conversion = &domain.ConversionScenario{
			Name:                   s.Name,
			CompanyValuation:       c.CompanyValuation,
			TimeToConversionYears:  c.TimeToConversionYears,
			TriggerType:            domain.TriggerType(c.TriggerType),
			ExpectedReturnMultiple: c.ExpectedReturnMultiple,
		}
	}
	if c := s.Carry; c != nil {
		sc.Carry = &orchestrator.CarryInputs{HoldingYears: c.HoldingYears, ExitMultiple: c.ExitMultiple}
	}
	if len(s.Exits) > 0 {
		sc.Exits = make([]domain.DealExit, len(s.Exits))
		for i, e := range s.Exits {
			sc.Exits[i] = domain.DealExit{
				DealID:          e.DealID,
				InvestedCapital: e.InvestedCapital,
				Proceeds:        e.Proceeds,
				HoldingYears:    e.HoldingYears,
			}
		}
	}
	return sc
}

// Options copies the decoded inputs into orchestrator options. Policies,
// stores and runtime settings are left for the caller.
func (in *Inputs) Options() orchestrator.Options {
	return orchestrator.Options{
		CapStructure: in.CapStructure,
		Conversion:   in.Conversion,
		Fund:         in.Fund,
		Peer:         in.Peer,
		TermYears:    in.TermYears,
		Basis:        in.Basis,
	}
}
