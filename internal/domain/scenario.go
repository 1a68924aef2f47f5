package domain

// ConversionType is whether the holder may choose to convert.
type ConversionType string

const (
	ConversionOptional  ConversionType = "OPTIONAL"
	ConversionMandatory ConversionType = "MANDATORY"
)

// TriggerType is the liquidity event a conversion scenario models.
type TriggerType string

const (
	TriggerIPO                TriggerType = "IPO"
	TriggerQualifiedFinancing TriggerType = "QUALIFIED_FINANCING"
	TriggerAcquisition        TriggerType = "ACQUISITION"
	TriggerVoluntary          TriggerType = "VOLUNTARY"
)

// Valid reports whether t is a known trigger type.
func (t TriggerType) Valid() bool {
	switch t {
	case TriggerIPO, TriggerQualifiedFinancing, TriggerAcquisition, TriggerVoluntary:
		return true
	default:
		return false
	}
}

// AutomaticTriggers are thresholds that force conversion. A zero value means
// the threshold is not part of the instrument.
type AutomaticTriggers struct {
	IPOValuation              float64
	IPOPrice                  float64
	QualifiedFinancingMinimum float64
	QualifiedFinancingPrice   float64
}

// ConversionRight describes the convertible instrument.
type ConversionRight struct {
	ConversionPrice float64
	ConversionRatio float64
	ConversionType  ConversionType
	Triggers        *AutomaticTriggers // nil when the instrument has none
}

// ConversionInputs are the holder-side facts shared by every scenario.
type ConversionInputs struct {
	OriginalInvestment          float64
	TotalSharesOutstanding      float64
	LiquidationPreferenceAmount float64
	CurrentCompanyValuation     float64
	Right                       ConversionRight
}

// ConversionScenario is one hypothetical exit. Scenario order is significant
// to callers and is preserved by every batch operation.
type ConversionScenario struct {
	Name                   string
	CompanyValuation       float64
	TimeToConversionYears  float64
	TriggerType            TriggerType
	ExpectedReturnMultiple float64
}
