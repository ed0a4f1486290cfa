// Package money holds the canonical monetary precision of the storefront.
//
// Amounts are carried as exact decimals end to end; Display is the only
// place rounding happens.
package money

import "github.com/shopspring/decimal"

// DisplayPlaces is the number of decimals shown to customers.
const DisplayPlaces = 2

// Zero is the additive identity.
var Zero = decimal.Zero

// Hundred is used for percentage math.
var Hundred = decimal.NewFromInt(100)

// RoundHalfUp rounds value to DisplayPlaces using HALF-UP mode.
func RoundHalfUp(value decimal.Decimal) decimal.Decimal {
	return value.Round(DisplayPlaces)
}

// Display renders value with exactly DisplayPlaces decimals.
func Display(value decimal.Decimal) string {
	return value.StringFixed(DisplayPlaces)
}

// Percent returns pct percent of value.
func Percent(value, pct decimal.Decimal) decimal.Decimal {
	return value.Mul(pct).Div(Hundred)
}

// Clamp bounds value to [lo, hi].
func Clamp(value, lo, hi decimal.Decimal) decimal.Decimal {
	if value.LessThan(lo) {
		return lo
	}
	if value.GreaterThan(hi) {
		return hi
	}
	return value
}

// FromFloat converts a backend float price into a decimal. Floats are
// parsed through their shortest string form so 10.1 stays 10.1.
func FromFloat(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}
