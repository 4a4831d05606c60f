// Package order implements the in-progress sale: its line items, discounts,
// taxes, comments and approvals. All methods are pure state transitions; the
// engine package is responsible for persisting the result.
package order

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/xenking/oolio-pos/internal/domain/pricing"
	"github.com/xenking/oolio-pos/internal/domain/product"
)

// Customer is the optional buyer attached to a sale.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone"`
	Email string `json:"email" validate:"omitempty,email"`
	Note  string `json:"note"`
}

// Payment is an opaque payment record, kept as raw JSON.
type Payment []byte

// Order is the aggregate for a single sale.
type Order struct {
	Items                []LineItem
	Customer             *Customer
	OverallDiscount      decimal.Decimal
	Rates                pricing.Rates
	DefaultSalesPersonID string
	Comments             []Comment
	Approvals            []Approval
	Payments             []Payment
}

// New returns an empty order using the given default tax rates.
func New(rates pricing.Rates) *Order {
	return &Order{Rates: rates}
}

// Clone returns a deep copy of the order.
func (o *Order) Clone() *Order {
	c := *o
	c.Items = slices.Clone(o.Items)
	c.Comments = slices.Clone(o.Comments)
	c.Approvals = slices.Clone(o.Approvals)
	if o.Customer != nil {
		cust := *o.Customer
		c.Customer = &cust
	}
	if o.Payments != nil {
		c.Payments = make([]Payment, len(o.Payments))
		for i, p := range o.Payments {
			c.Payments[i] = slices.Clone(p)
		}
	}
	return &c
}

// IsEmpty reports whether the order has no line items.
func (o *Order) IsEmpty() bool {
	return len(o.Items) == 0
}

// Reset clears the sale back to its empty defaults. Tax rates and the default
// salesperson are terminal settings and survive.
func (o *Order) Reset() {
	o.Items = nil
	o.Customer = nil
	o.OverallDiscount = decimal.Zero
	o.Comments = nil
	o.Approvals = nil
	o.Payments = nil
}

// Item returns the line with the given key.
func (o *Order) Item(k Key) (*LineItem, bool) {
	i := o.index(k)
	if i < 0 {
		return nil, false
	}
	return &o.Items[i], true
}

func (o *Order) index(k Key) int {
	return slices.IndexFunc(o.Items, func(l LineItem) bool {
		return l.ItemID == k.ItemID && l.SKU == k.SKU
	})
}

// AddItem adds one unit of p. An existing line for the same key has its
// quantity incremented (clamped to its maximum); otherwise a new line is
// appended carrying the current overall discount, default tax rates and
// default salesperson.
func (o *Order) AddItem(p product.Product) {
	if l, ok := o.Item(KeyOf(p)); ok {
		l.setQuantity(l.Quantity + 1)
		return
	}
	o.Items = append(o.Items, newLineItem(p, o.OverallDiscount, o.Rates, o.DefaultSalesPersonID))
}

// IncrementItem adds one to the line's quantity, up to its maximum.
func (o *Order) IncrementItem(k Key) bool {
	l, ok := o.Item(k)
	if !ok {
		return false
	}
	l.setQuantity(l.Quantity + 1)
	return true
}

// DecrementItem removes one from the line's quantity. Decrementing a line
// with quantity 1 deletes it.
func (o *Order) DecrementItem(k Key) bool {
	l, ok := o.Item(k)
	if !ok {
		return false
	}
	if l.Quantity <= 1 {
		return o.DeleteItem(k)
	}
	l.setQuantity(l.Quantity - 1)
	return true
}

// DeleteItem removes the line. Removing the last line resets the order.
func (o *Order) DeleteItem(k Key) bool {
	i := o.index(k)
	if i < 0 {
		return false
	}
	o.Items = slices.Delete(o.Items, i, i+1)
	if len(o.Items) == 0 {
		o.Reset()
	}
	return true
}

// UpdateDiscount sets the line's discount percent and recomputes its price
// from the original price.
func (o *Order) UpdateDiscount(k Key, percent decimal.Decimal) bool {
	l, ok := o.Item(k)
	if !ok {
		return false
	}
	l.applyDiscount(percent)
	return true
}

// ResetDiscount restores the line to its original price.
func (o *Order) ResetDiscount(k Key) bool {
	return o.UpdateDiscount(k, decimal.Zero)
}

// UpdateOriginalPrice replaces the line's original price and re-derives the
// discount percent from the unchanged effective price.
func (o *Order) UpdateOriginalPrice(k Key, original decimal.Decimal) bool {
	l, ok := o.Item(k)
	if !ok {
		return false
	}
	l.OriginalPrice = floorAtZero(original).Round(2)
	l.rederive()
	return true
}

// UpdatePrice is a manual price override: the effective price is set and the
// discount percent re-derived from the original price.
func (o *Order) UpdatePrice(k Key, price decimal.Decimal) bool {
	l, ok := o.Item(k)
	if !ok {
		return false
	}
	l.Price = floorAtZero(price).Round(2)
	l.rederive()
	return true
}

// SetTaxesWaived toggles whether the line is taxed.
func (o *Order) SetTaxesWaived(k Key, waived bool) bool {
	l, ok := o.Item(k)
	if !ok {
		return false
	}
	l.TaxesWaived = waived
	return true
}

// SetSalesPerson assigns a salesperson to a single line.
func (o *Order) SetSalesPerson(k Key, salesPersonID string) bool {
	l, ok := o.Item(k)
	if !ok {
		return false
	}
	l.SalesPersonID = salesPersonID
	return true
}

// ApplySalesPersonToAll makes salesPersonID the default for new lines and
// assigns it to every existing line.
func (o *Order) ApplySalesPersonToAll(salesPersonID string) {
	o.DefaultSalesPersonID = salesPersonID
	for i := range o.Items {
		o.Items[i].SalesPersonID = salesPersonID
	}
}

// ApplyOverallDiscount sets the order-wide discount and reapplies it to every
// line from its original price, overwriting per-line discounts.
func (o *Order) ApplyOverallDiscount(percent decimal.Decimal) {
	o.OverallDiscount = pricing.ClampPercent(percent).Round(2)
	for i := range o.Items {
		o.Items[i].applyDiscount(o.OverallDiscount)
	}
}

// ClearOverallDiscount removes the order-wide discount from every line.
func (o *Order) ClearOverallDiscount() {
	o.ApplyOverallDiscount(decimal.Zero)
}

// UpdateTaxRate changes the default rate for t. Lines still on the outgoing
// default follow the new rate; lines with an independently set rate keep it.
func (o *Order) UpdateTaxRate(t pricing.TaxType, rate decimal.Decimal) {
	prev := o.Rates.Get(t)
	o.Rates = o.Rates.With(t, rate)
	for i := range o.Items {
		l := &o.Items[i]
		if l.TaxRates.Get(t).Equal(prev) {
			l.TaxRates = l.TaxRates.With(t, rate)
		}
	}
}

// UpdateItemTaxRate sets the rate for t on a single line.
func (o *Order) UpdateItemTaxRate(k Key, t pricing.TaxType, rate decimal.Decimal) bool {
	l, ok := o.Item(k)
	if !ok {
		return false
	}
	l.TaxRates = l.TaxRates.With(t, rate)
	return true
}

// ResetItemTaxRate restores the line's rate for t to the order default.
func (o *Order) ResetItemTaxRate(k Key, t pricing.TaxType) bool {
	return o.UpdateItemTaxRate(k, t, o.Rates.Get(t))
}

// SetCustomer attaches a customer to the sale.
func (o *Order) SetCustomer(c Customer) {
	o.Customer = &c
}

// ClearCustomer detaches the customer.
func (o *Order) ClearCustomer() {
	o.Customer = nil
}

// AddPayment records an opaque payment.
func (o *Order) AddPayment(p Payment) {
	o.Payments = append(o.Payments, slices.Clone(p))
}

// Total returns the sum of price * quantity over all lines.
func (o *Order) Total() decimal.Decimal {
	sum := decimal.Zero
	for i := range o.Items {
		sum = sum.Add(o.Items[i].LineTotal())
	}
	return sum.Round(2)
}

// Subtotal returns the undiscounted sum of original price * quantity.
func (o *Order) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range o.Items {
		sum = sum.Add(l.OriginalPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum.Round(2)
}

// DiscountAmount returns how much the discounts take off the subtotal.
func (o *Order) DiscountAmount() decimal.Decimal {
	return o.Subtotal().Sub(o.Total())
}

// TotalQuantity returns the number of units in the sale.
func (o *Order) TotalQuantity() int {
	n := 0
	for _, l := range o.Items {
		n += l.Quantity
	}
	return n
}

// Taxes returns the tax totals per type.
func (o *Order) Taxes() []pricing.TaxAmount {
	lines := make([]pricing.TaxLine, len(o.Items))
	for i, l := range o.Items {
		lines[i] = pricing.TaxLine{
			Price:    l.Price,
			Quantity: l.Quantity,
			Rates:    l.TaxRates,
			Waived:   l.TaxesWaived,
		}
	}
	return pricing.Taxes(lines, o.Rates)
}

// GrandTotal returns the total including taxes.
func (o *Order) GrandTotal() decimal.Decimal {
	return o.Total().Add(pricing.SumTaxes(o.Taxes()))
}

// CashTotal returns the grand total rounded to the nearest five cents.
func (o *Order) CashTotal() decimal.Decimal {
	return pricing.RoundToNearestFiveCents(o.GrandTotal())
}

// TotalDiscountPercentage returns the mean of the line discounts. It is a
// reporting figure and does not feed back into pricing.
func (o *Order) TotalDiscountPercentage() decimal.Decimal {
	percents := make([]decimal.Decimal, len(o.Items))
	for i, l := range o.Items {
		percents[i] = l.DiscountPercent
	}
	return pricing.MeanPercent(percents)
}

func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
