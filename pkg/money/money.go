// Package money sums catalog prices without binary float drift.
package money

import "github.com/shopspring/decimal"

// LineTotal returns price × quantity.
func LineTotal(price float64, quantity int) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(quantity)))
}

// Amount converts a decimal back to the float representation used on the wire,
// rounded to cents.
func Amount(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
