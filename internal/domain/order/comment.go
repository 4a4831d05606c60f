package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// CommentItem is a snapshot of the line a comment refers to.
type CommentItem struct {
	Name     string
	Price    decimal.Decimal
	ImageURL string
	SKU      string
	Discount decimal.Decimal
}

// Comment is a note attached to the sale, usually a manager's approval or
// rejection of a discount.
type Comment struct {
	ID            string
	Item          *CommentItem
	Text          string
	AuthorID      string
	Timestamp     time.Time
	Reply         string
	RequiresReply bool
}

// Approval records that a manager signed off on a discount.
type Approval struct {
	ManagerID         string
	ApprovalID        string
	ItemID            string
	IsOverallDiscount bool
}

// CommentRequest is a comment submitted against a line (Item set) or the
// whole order (Item nil).
//
// When Approved is set and ManagerID is present the requested Discount is
// applied and an approval recorded; otherwise the pending discount on the
// target is reset.
type CommentRequest struct {
	Item         *Key
	Text         string
	AuthorID     string
	ManagerID    string
	Discount     decimal.Decimal
	Approved     bool
	RequireReply bool

	// Filled by the caller so that the transition stays deterministic.
	CommentID  string
	ApprovalID string
	At         time.Time
}

// SubmitComment records the comment and applies or resets the discount it
// refers to. It reports false, changing nothing, when Item names a line that
// no longer exists.
func (o *Order) SubmitComment(req CommentRequest) bool {
	approved := req.Approved && req.ManagerID != ""

	c := Comment{
		ID:            req.CommentID,
		Text:          req.Text,
		AuthorID:      req.AuthorID,
		Timestamp:     req.At,
		RequiresReply: req.RequireReply,
	}

	if req.Item != nil {
		l, ok := o.Item(*req.Item)
		if !ok {
			return false
		}
		if approved {
			l.applyDiscount(req.Discount)
		} else {
			l.applyDiscount(decimal.Zero)
		}
		c.Item = &CommentItem{
			Name:     l.Name,
			Price:    l.Price,
			ImageURL: l.ImageRef,
			SKU:      l.SKU,
			Discount: l.DiscountPercent,
		}
	} else {
		if approved {
			o.ApplyOverallDiscount(req.Discount)
		} else {
			o.ClearOverallDiscount()
		}
	}

	o.Comments = append(o.Comments, c)
	if approved {
		a := Approval{
			ManagerID:         req.ManagerID,
			ApprovalID:        req.ApprovalID,
			IsOverallDiscount: req.Item == nil,
		}
		if req.Item != nil {
			a.ItemID = req.Item.ItemID
		}
		o.Approvals = append(o.Approvals, a)
	}
	return true
}

// ReplyToComment stores a reply on the i-th comment and clears its pending
// reply flag.
func (o *Order) ReplyToComment(i int, reply string) bool {
	if i < 0 || i >= len(o.Comments) {
		return false
	}
	o.Comments[i].Reply = reply
	o.Comments[i].RequiresReply = false
	return true
}

// NeedsManagerComment reports whether any comment still awaits a reply.
func (o *Order) NeedsManagerComment() bool {
	for _, c := range o.Comments {
		if c.RequiresReply {
			return true
		}
	}
	return false
}
