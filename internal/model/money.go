package model

import "github.com/shopspring/decimal"

// CentsToAmount converts an integer amount in cents to the decimal BRL value
// the gateway expects, e.g. 6500 -> 65.00.
func CentsToAmount(cents int64) float64 {
	return decimal.New(cents, -2).InexactFloat64()
}

// AmountToCents converts a BRL amount to cents, rounding half away from zero.
func AmountToCents(amount float64) int64 {
	return decimal.NewFromFloat(amount).Shift(2).Round(0).IntPart()
}
