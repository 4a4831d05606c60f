package order

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

func cents(c int) decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// TestAddItemQuantityProperty verifies that n adds of the same product give
// quantity min(n, max).
func TestAddItemQuantityProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("quantity equals add count clamped to max", prop.ForAll(
		func(n, maxQty, priceCents int) bool {
			p := newTestProduct("p1", "0", maxQty)
			p.Price = cents(priceCents)

			o := New(defaultRates())
			for range n {
				o.AddItem(p)
			}
			return len(o.Items) == 1 && o.Items[0].Quantity == min(n, maxQty)
		},
		gen.IntRange(1, 50),
		gen.IntRange(1, 20),
		gen.IntRange(0, 100000),
	))

	properties.TestingRun(t)
}

// TestDiscountRoundTripProperty verifies that deriving the discount back from
// the discounted price recovers it within 0.01.
func TestDiscountRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	tolerance := decimal.RequireFromString("0.01")

	properties.Property("update discount then original price recovers discount", prop.ForAll(
		func(originalCents, percentCents int) bool {
			original := cents(originalCents)
			percent := cents(percentCents)

			p := newTestProduct("p1", "0", 5)
			p.Price = original
			o := New(defaultRates())
			o.AddItem(p)

			k := KeyOf(p)
			o.UpdateDiscount(k, percent)
			o.UpdateOriginalPrice(k, original)

			got := o.Items[0].DiscountPercent
			return got.Sub(percent).Abs().LessThanOrEqual(tolerance)
		},
		gen.IntRange(10000, 1000000),
		gen.IntRange(0, 10000),
	))

	properties.TestingRun(t)
}

// TestOverallDiscountRestoreProperty verifies that clearing an overall
// discount restores every line to its original price exactly.
func TestOverallDiscountRestoreProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("apply then clear overall discount is identity on prices", prop.ForAll(
		func(prices []int, percentCents int) bool {
			o := New(defaultRates())
			for i, c := range prices {
				p := newTestProduct(string(rune('a'+i%26))+string(rune('a'+i/26)), "0", 5)
				p.Price = cents(c)
				o.AddItem(p)
			}

			o.ApplyOverallDiscount(cents(percentCents))
			o.ApplyOverallDiscount(decimal.Zero)

			for _, l := range o.Items {
				if !l.Price.Equal(l.OriginalPrice) || !l.DiscountPercent.IsZero() {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(10, gen.IntRange(0, 100000)),
		gen.IntRange(0, 10000),
	))

	properties.TestingRun(t)
}
