package order

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Draft is a parked snapshot of a sale.
type Draft struct {
	ID        string
	Order     *Order
	CreatedAt time.Time
}

// NewDraft snapshots o. Empty orders cannot be parked.
func NewDraft(o *Order, id string, at time.Time) (Draft, error) {
	if o.IsEmpty() {
		return Draft{}, ErrEmptyOrder
	}
	return Draft{ID: id, Order: o.Clone(), CreatedAt: at}, nil
}

// Merge folds a parked order into o. Lines with the same key have their
// quantities summed (clamped to the line maximum) and new lines are
// appended. Comments, approvals and payments are concatenated. The overall
// discount becomes the larger of the two and is re-applied to the lines of
// whichever side had the smaller one. The draft's customer is only taken when
// o has none.
func (o *Order) Merge(d *Order) {
	overall := decimal.Max(o.OverallDiscount, d.OverallDiscount)

	if !o.OverallDiscount.Equal(overall) {
		for i := range o.Items {
			o.Items[i].applyDiscount(overall)
		}
	}

	for _, in := range d.Items {
		if !d.OverallDiscount.Equal(overall) {
			in.applyDiscount(overall)
		}
		if l, ok := o.Item(in.Key()); ok {
			l.setQuantity(l.Quantity + in.Quantity)
			continue
		}
		o.Items = append(o.Items, in)
	}
	o.OverallDiscount = overall

	o.Comments = append(o.Comments, d.Comments...)
	o.Approvals = append(o.Approvals, d.Approvals...)
	for _, p := range d.Payments {
		o.Payments = append(o.Payments, slices.Clone(p))
	}

	if o.Customer == nil && d.Customer != nil {
		c := *d.Customer
		o.Customer = &c
	}
}
