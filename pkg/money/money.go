// Package money holds currency helpers shared by the generator, the settlement stage and the ledger.
package money

import "github.com/shopspring/decimal"

// Places is the number of decimals prices are quoted with.
const Places = 2

// Round2 rounds v to two decimals, half away from zero.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(Places).Float64()
	return f
}

// FromFloat converts a wire price into a decimal without binary noise beyond the shortest representation.
func FromFloat(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// ToFloat converts a decimal back into a wire value.
func ToFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// Notional returns quantity * price.
func Notional(quantity uint64, price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromUint64(quantity))
}
