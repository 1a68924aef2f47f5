package domain

// DiscountPolicy sets the annual rate used to discount future conversion value.
type DiscountPolicy struct {
	AnnualDiscountRate float64
}

// DefaultDiscountPolicy returns the conventional 12% discount rate.
func DefaultDiscountPolicy() *DiscountPolicy {
	return &DiscountPolicy{AnnualDiscountRate: 0.12}
}

// BenchmarkPolicy sets the symmetric band around peer averages that counts as market.
type BenchmarkPolicy struct {
	Band float64
}

// DefaultBenchmarkPolicy returns a ±10% market band.
func DefaultBenchmarkPolicy() *BenchmarkPolicy {
	return &BenchmarkPolicy{Band: 0.10}
}
