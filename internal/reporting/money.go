package reporting

import "github.com/shopspring/decimal"

const (
	moneyPlaces   = 2
	precisePlaces = 6 // rates, fractions and per-share prices
)

var hundred = decimal.NewFromInt(100)

// money rounds v to cents.
func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(moneyPlaces)
}

func precise(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(precisePlaces)
}

func moneyPtr(v *float64) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := money(*v)
	return &d
}

func precisePtr(v *float64) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := precise(*v)
	return &d
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(moneyPlaces)
}

// formatPct renders a fraction as a percentage with two places.
func formatPct(d decimal.Decimal) string {
	return d.Mul(hundred).StringFixed(2) + "%"
}

func formatOpt(d *decimal.Decimal, places int32) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(places)
}

func formatOptPct(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return formatPct(*d)
}
