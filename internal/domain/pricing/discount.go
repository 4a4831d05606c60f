// Package pricing holds the pure money math of an order: discounts derived
// from an original price and taxes summed over line items.
package pricing

import (
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
	twenty  = decimal.NewFromInt(20)
)

// ClampPercent limits a percentage to the [0, 100] range.
func ClampPercent(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return zero
	}
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}

// DiscountedPrice returns original * (1 - percent/100) rounded to 2 decimal
// places. The percent is clamped to [0, 100] first.
func DiscountedPrice(original, percent decimal.Decimal) decimal.Decimal {
	p := ClampPercent(percent)
	factor := hundred.Sub(p).Div(hundred)
	return floorAtZero(original.Mul(factor)).Round(2)
}

// DerivePercent is the inverse of DiscountedPrice: given an effective price
// and an original price it returns (1 - price/original) * 100 rounded to
// 2 decimal places. A zero original yields a zero discount.
func DerivePercent(price, original decimal.Decimal) decimal.Decimal {
	if !original.IsPositive() {
		return zero
	}
	ratio := price.Div(original)
	return decimal.NewFromInt(1).Sub(ratio).Mul(hundred).Round(2)
}

// MeanPercent returns the arithmetic mean of the given percentages rounded to
// 2 decimal places, or zero for an empty slice.
func MeanPercent(percents []decimal.Decimal) decimal.Decimal {
	if len(percents) == 0 {
		return zero
	}
	sum := zero
	for _, p := range percents {
		sum = sum.Add(p)
	}
	return sum.Div(decimal.NewFromInt(int64(len(percents)))).Round(2)
}

// RoundToNearestFiveCents applies cash rounding to the nearest 0.05.
func RoundToNearestFiveCents(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(twenty).Round(0).Div(twenty).Round(2)
}

// floorAtZero clamps negative values to zero.
func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return zero
	}
	return d
}
