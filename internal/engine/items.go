package engine

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/xenking/oolio-pos/internal/domain/order"
	"github.com/xenking/oolio-pos/internal/domain/pricing"
	"github.com/xenking/oolio-pos/internal/domain/product"
)

// AddItem adds one unit of p to the sale.
func (e *Engine) AddItem(ctx context.Context, p product.Product) error {
	return e.update(ctx, "add_item", func(tx *txn) error {
		if err := e.validate.StructCtx(ctx, p); err != nil {
			return fromValidator(err)
		}
		if p.Price.IsNegative() {
			return &InvalidInputError{Field: "Price", Reason: "must not be negative"}
		}
		if p.MaxQuantity == 0 && e.defaultMax > 0 {
			p.MaxQuantity = e.defaultMax
		}
		tx.order.AddItem(p)
		tx.changed = true
		return nil
	})
}

// IncrementItem adds one unit to the line, up to its maximum quantity.
func (e *Engine) IncrementItem(ctx context.Context, k order.Key) error {
	return e.apply(ctx, "increment_item", func(o *order.Order) bool {
		return o.IncrementItem(k)
	})
}

// DecrementItem removes one unit; the line is deleted when it reaches zero.
func (e *Engine) DecrementItem(ctx context.Context, k order.Key) error {
	return e.apply(ctx, "decrement_item", func(o *order.Order) bool {
		return o.DecrementItem(k)
	})
}

// DeleteItem removes the line. Removing the last line resets the sale.
func (e *Engine) DeleteItem(ctx context.Context, k order.Key) error {
	return e.apply(ctx, "delete_item", func(o *order.Order) bool {
		return o.DeleteItem(k)
	})
}

// UpdateDiscount sets the line discount; percent is clamped to [0, 100].
func (e *Engine) UpdateDiscount(ctx context.Context, k order.Key, percent decimal.Decimal) error {
	return e.apply(ctx, "update_discount", func(o *order.Order) bool {
		return o.UpdateDiscount(k, percent)
	})
}

// ResetDiscount restores the line to its original price.
func (e *Engine) ResetDiscount(ctx context.Context, k order.Key) error {
	return e.apply(ctx, "reset_discount", func(o *order.Order) bool {
		return o.ResetDiscount(k)
	})
}

// UpdateOriginalPrice changes the line's list price, keeping its effective
// price and re-deriving the discount.
func (e *Engine) UpdateOriginalPrice(ctx context.Context, k order.Key, original decimal.Decimal) error {
	return e.update(ctx, "update_original_price", func(tx *txn) error {
		if original.IsNegative() {
			return &InvalidInputError{Field: "OriginalPrice", Reason: "must not be negative"}
		}
		tx.changed = tx.order.UpdateOriginalPrice(k, original)
		return nil
	})
}

// UpdatePrice overrides the line's effective price.
func (e *Engine) UpdatePrice(ctx context.Context, k order.Key, price decimal.Decimal) error {
	return e.update(ctx, "update_price", func(tx *txn) error {
		if price.IsNegative() {
			return &InvalidInputError{Field: "Price", Reason: "must not be negative"}
		}
		tx.changed = tx.order.UpdatePrice(k, price)
		return nil
	})
}

// SetTaxesWaived excludes the line from, or returns it to, tax calculation.
func (e *Engine) SetTaxesWaived(ctx context.Context, k order.Key, waived bool) error {
	return e.apply(ctx, "set_taxes_waived", func(o *order.Order) bool {
		return o.SetTaxesWaived(k, waived)
	})
}

// UpdateItemTaxRate overrides the rate for t on a single line.
func (e *Engine) UpdateItemTaxRate(ctx context.Context, k order.Key, t pricing.TaxType, rate decimal.Decimal) error {
	return e.update(ctx, "update_item_tax_rate", func(tx *txn) error {
		if err := checkRate(t, rate); err != nil {
			return err
		}
		tx.changed = tx.order.UpdateItemTaxRate(k, t, rate)
		return nil
	})
}

// ResetItemTaxRate restores the line's rate for t to the sale default.
func (e *Engine) ResetItemTaxRate(ctx context.Context, k order.Key, t pricing.TaxType) error {
	return e.update(ctx, "reset_item_tax_rate", func(tx *txn) error {
		if !t.Valid() {
			return &InvalidInputError{Field: "TaxType", Reason: "unknown tax type " + string(t)}
		}
		tx.changed = tx.order.ResetItemTaxRate(k, t)
		return nil
	})
}

// SetSalesPerson assigns a salesperson to one line.
func (e *Engine) SetSalesPerson(ctx context.Context, k order.Key, salesPersonID string) error {
	return e.apply(ctx, "set_sales_person", func(o *order.Order) bool {
		return o.SetSalesPerson(k, salesPersonID)
	})
}

func checkRate(t pricing.TaxType, rate decimal.Decimal) error {
	if !t.Valid() {
		return &InvalidInputError{Field: "TaxType", Reason: "unknown tax type " + string(t)}
	}
	if rate.IsNegative() {
		return &InvalidInputError{Field: "Rate", Reason: "must not be negative"}
	}
	return nil
}
