package engine

import (
	"context"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/oolio-pos/internal/domain/order"
	"github.com/xenking/oolio-pos/internal/domain/pricing"
)

// Clear resets the active sale.
func (e *Engine) Clear(ctx context.Context) error {
	return e.apply(ctx, "clear", func(o *order.Order) bool {
		o.Reset()
		return true
	})
}

// ApplyOverallDiscount discounts every line by percent, replacing per-line
// discounts.
func (e *Engine) ApplyOverallDiscount(ctx context.Context, percent decimal.Decimal) error {
	return e.apply(ctx, "apply_overall_discount", func(o *order.Order) bool {
		o.ApplyOverallDiscount(percent)
		return true
	})
}

// ClearOverallDiscount removes the order-wide discount from every line.
func (e *Engine) ClearOverallDiscount(ctx context.Context) error {
	return e.apply(ctx, "clear_overall_discount", func(o *order.Order) bool {
		o.ClearOverallDiscount()
		return true
	})
}

// UpdateTaxRate changes the default rate for t.
func (e *Engine) UpdateTaxRate(ctx context.Context, t pricing.TaxType, rate decimal.Decimal) error {
	return e.update(ctx, "update_tax_rate", func(tx *txn) error {
		if err := checkRate(t, rate); err != nil {
			return err
		}
		tx.order.UpdateTaxRate(t, rate)
		tx.changed = true
		return nil
	})
}

// ApplySalesPersonToAll assigns salesPersonID to every line and to lines
// added later.
func (e *Engine) ApplySalesPersonToAll(ctx context.Context, salesPersonID string) error {
	return e.apply(ctx, "apply_sales_person", func(o *order.Order) bool {
		o.ApplySalesPersonToAll(salesPersonID)
		return true
	})
}

// SetCustomer validates c and attaches it to the sale.
func (e *Engine) SetCustomer(ctx context.Context, c order.Customer) error {
	return e.update(ctx, "set_customer", func(tx *txn) error {
		if err := e.validate.StructCtx(ctx, c); err != nil {
			return fromValidator(err)
		}
		tx.order.SetCustomer(c)
		tx.changed = true
		return nil
	})
}

// ClearCustomer detaches the customer.
func (e *Engine) ClearCustomer(ctx context.Context) error {
	return e.apply(ctx, "clear_customer", func(o *order.Order) bool {
		o.ClearCustomer()
		return true
	})
}

// AddPayment records a payment. raw must be a JSON value.
func (e *Engine) AddPayment(ctx context.Context, raw []byte) error {
	return e.update(ctx, "add_payment", func(tx *txn) error {
		if !jx.Valid(raw) {
			return &InvalidInputError{Field: "Payment", Reason: "not valid JSON"}
		}
		tx.order.AddPayment(order.Payment(raw))
		tx.changed = true
		return nil
	})
}

// SubmitComment records a manager comment. Identifiers and the timestamp are
// assigned here; any set on req are overwritten.
func (e *Engine) SubmitComment(ctx context.Context, req order.CommentRequest) error {
	return e.update(ctx, "submit_comment", func(tx *txn) error {
		req.CommentID = e.newID()
		req.ApprovalID = e.newID()
		req.At = e.now()
		tx.changed = tx.order.SubmitComment(req)
		return nil
	})
}

// ReplyToComment stores a reply on the comment at index.
func (e *Engine) ReplyToComment(ctx context.Context, index int, reply string) error {
	return e.apply(ctx, "reply_to_comment", func(o *order.Order) bool {
		return o.ReplyToComment(index, reply)
	})
}
