package pricing

import (
	"github.com/shopspring/decimal"
)

// TaxType names a configurable sales tax.
type TaxType string

const (
	// GST is the federal goods and services tax.
	GST TaxType = "GST"
	// PST is the provincial sales tax.
	PST TaxType = "PST"
)

// TaxTypes lists the supported tax types in reporting order.
var TaxTypes = []TaxType{GST, PST}

// Valid reports whether t is a supported tax type.
func (t TaxType) Valid() bool {
	return t == GST || t == PST
}

// Rates holds a percentage rate per tax type (5 means 5%).
type Rates struct {
	GST decimal.Decimal
	PST decimal.Decimal
}

// Get returns the rate for the given tax type.
func (r Rates) Get(t TaxType) decimal.Decimal {
	switch t {
	case GST:
		return r.GST
	case PST:
		return r.PST
	default:
		return zero
	}
}

// With returns a copy of r with the rate for t replaced.
func (r Rates) With(t TaxType, rate decimal.Decimal) Rates {
	switch t {
	case GST:
		r.GST = rate
	case PST:
		r.PST = rate
	}
	return r
}

// TaxLine is the per-item input of the tax calculation.
type TaxLine struct {
	Price    decimal.Decimal
	Quantity int
	Rates    Rates
	Waived   bool
}

// TaxAmount is the computed total for a single tax type.
type TaxAmount struct {
	Type   TaxType
	Rate   decimal.Decimal
	Amount decimal.Decimal
}

// LineTax returns price * quantity * rate / 100 without rounding.
func LineTax(price decimal.Decimal, quantity int, rate decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity))).Mul(rate).Div(hundred)
}

// Taxes sums each tax type over the non-waived lines. Rounding to 2 decimal
// places happens once per total, not per line. Rate reports the given
// default rate for the type.
func Taxes(lines []TaxLine, defaults Rates) []TaxAmount {
	out := make([]TaxAmount, 0, len(TaxTypes))
	for _, t := range TaxTypes {
		sum := zero
		for _, l := range lines {
			if l.Waived {
				continue
			}
			sum = sum.Add(LineTax(l.Price, l.Quantity, l.Rates.Get(t)))
		}
		out = append(out, TaxAmount{
			Type:   t,
			Rate:   defaults.Get(t),
			Amount: sum.Round(2),
		})
	}
	return out
}

// SumTaxes adds the amounts of the given tax totals.
func SumTaxes(taxes []TaxAmount) decimal.Decimal {
	sum := zero
	for _, t := range taxes {
		sum = sum.Add(t.Amount)
	}
	return sum
}
