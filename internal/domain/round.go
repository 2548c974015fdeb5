package domain

import "github.com/shopspring/decimal"

// Round rounds x half away from zero to the given number of decimal places.
// Persisted datasets carry 2 or 4 decimal places; binary floats cannot round
// reliably by multiplying and truncating.
func Round(x float64, places int32) float64 {
	return decimal.NewFromFloat(x).Round(places).InexactFloat64()
}
