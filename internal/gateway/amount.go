package gateway

import "math"

// MinorUnits converts a decimal amount in major units to the integer
// minor-unit representation the remote API requires, rounding to the
// nearest integer. Assumes a two-decimal currency; zero- and three-decimal
// currencies are not handled.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// AmountFromMinorUnits converts a minor-unit amount back to major units.
func AmountFromMinorUnits(minor int64) float64 {
	return float64(minor) / 100
}
