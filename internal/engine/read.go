package engine

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/oolio-pos/internal/domain/order"
	"github.com/xenking/oolio-pos/internal/domain/pricing"
)

// Totals are the derived figures of the active sale.
type Totals struct {
	Quantity        int
	Subtotal        decimal.Decimal
	Discount        decimal.Decimal
	DiscountPercent decimal.Decimal
	Total           decimal.Decimal
	Taxes           []pricing.TaxAmount
	GrandTotal      decimal.Decimal
	CashTotal       decimal.Decimal
}

// Snapshot returns a copy of the active sale.
func (e *Engine) Snapshot() *order.Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active.Clone()
}

// Totals computes the derived figures of the active sale.
func (e *Engine) Totals() Totals {
	e.mu.Lock()
	defer e.mu.Unlock()

	o := e.active
	return Totals{
		Quantity:        o.TotalQuantity(),
		Subtotal:        o.Subtotal(),
		Discount:        o.DiscountAmount(),
		DiscountPercent: o.TotalDiscountPercentage(),
		Total:           o.Total(),
		Taxes:           o.Taxes(),
		GrandTotal:      o.GrandTotal(),
		CashTotal:       o.CashTotal(),
	}
}

// NeedsManagerComment reports whether a comment still awaits a reply.
func (e *Engine) NeedsManagerComment() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active.NeedsManagerComment()
}
