// Package codec encodes the active order and the draft list into the JSON
// blobs kept by the persistence adapter.
package codec

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/oolio-pos/internal/domain/order"
	"github.com/xenking/oolio-pos/internal/domain/pricing"
)

// EncodeOrder returns the JSON form of o. Derived totals (taxes, total) are
// included for readers of the blob but ignored by DecodeOrder.
func EncodeOrder(o *order.Order) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ObjStart()
	encodeOrderFields(e, o)
	e.ObjEnd()

	return append([]byte(nil), e.Bytes()...)
}

// DecodeOrder parses a blob produced by EncodeOrder. Tax rates missing from
// the blob, for the order or for a line, are taken from defaults.
func DecodeOrder(data []byte, defaults pricing.Rates) (*order.Order, error) {
	if len(data) == 0 {
		return nil, errors.New("empty blob")
	}
	s := newOrderState()
	d := jx.DecodeBytes(data)
	if err := d.Obj(s.decodeField); err != nil {
		return nil, errors.Wrap(err, "decode order")
	}
	return s.finish(defaults), nil
}

// EncodeDrafts returns the JSON form of the draft list.
func EncodeDrafts(drafts []order.Draft) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ArrStart()
	for _, dr := range drafts {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(dr.ID)
		e.FieldStart("timestamp")
		e.Int64(dr.CreatedAt.UnixMilli())
		encodeOrderFields(e, dr.Order)
		e.ObjEnd()
	}
	e.ArrEnd()

	return append([]byte(nil), e.Bytes()...)
}

// DecodeDrafts parses a blob produced by EncodeDrafts. Missing tax rates are
// handled as in DecodeOrder.
func DecodeDrafts(data []byte, defaults pricing.Rates) ([]order.Draft, error) {
	if len(data) == 0 {
		return nil, errors.New("empty blob")
	}
	var drafts []order.Draft
	d := jx.DecodeBytes(data)
	if err := d.Arr(func(d *jx.Decoder) error {
		var dr order.Draft
		st := newOrderState()
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "id":
				v, err := d.Str()
				dr.ID = v
				return err
			case "timestamp":
				v, err := d.Int64()
				dr.CreatedAt = time.UnixMilli(v).UTC()
				return err
			default:
				return st.decodeField(d, key)
			}
		}); err != nil {
			return err
		}
		dr.Order = st.finish(defaults)
		drafts = append(drafts, dr)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode drafts")
	}
	return drafts, nil
}

func encodeOrderFields(e *jx.Encoder, o *order.Order) {
	e.FieldStart("lineItems")
	e.ArrStart()
	for i := range o.Items {
		encodeLineItem(e, &o.Items[i])
	}
	e.ArrEnd()

	e.FieldStart("overallDiscountPercent")
	encodeDecimal(e, o.OverallDiscount)

	e.FieldStart("defaultSalesPersonId")
	e.Str(o.DefaultSalesPersonID)

	e.FieldStart("taxConfig")
	e.ObjStart()
	e.FieldStart("gstRate")
	encodeDecimal(e, o.Rates.GST)
	e.FieldStart("pstRate")
	encodeDecimal(e, o.Rates.PST)
	e.ObjEnd()

	e.FieldStart("customer")
	if c := o.Customer; c != nil {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(c.ID)
		e.FieldStart("name")
		e.Str(c.Name)
		e.FieldStart("phone")
		e.Str(c.Phone)
		e.FieldStart("email")
		e.Str(c.Email)
		e.FieldStart("note")
		e.Str(c.Note)
		e.ObjEnd()
	} else {
		e.Null()
	}

	e.FieldStart("comments")
	e.ArrStart()
	for i := range o.Comments {
		encodeComment(e, &o.Comments[i])
	}
	e.ArrEnd()

	e.FieldStart("payments")
	e.ArrStart()
	for _, p := range o.Payments {
		e.Raw(p)
	}
	e.ArrEnd()

	e.FieldStart("approvalList")
	e.ArrStart()
	for _, a := range o.Approvals {
		e.ObjStart()
		e.FieldStart("managerId")
		e.Str(a.ManagerID)
		e.FieldStart("approvalId")
		e.Str(a.ApprovalID)
		if a.ItemID != "" {
			e.FieldStart("itemId")
			e.Str(a.ItemID)
		}
		e.FieldStart("isOverallDiscount")
		e.Bool(a.IsOverallDiscount)
		e.ObjEnd()
	}
	e.ArrEnd()

	e.FieldStart("taxes")
	e.ArrStart()
	for _, t := range o.Taxes() {
		e.ObjStart()
		e.FieldStart("type")
		e.Str(string(t.Type))
		e.FieldStart("rate")
		encodeDecimal(e, t.Rate)
		e.FieldStart("amount")
		encodeDecimal(e, t.Amount)
		e.ObjEnd()
	}
	e.ArrEnd()

	e.FieldStart("total")
	encodeDecimal(e, o.Total())
}

func encodeLineItem(e *jx.Encoder, l *order.LineItem) {
	e.ObjStart()
	e.FieldStart("itemId")
	e.Str(l.ItemID)
	e.FieldStart("sku")
	e.Str(l.SKU)
	e.FieldStart("name")
	e.Str(l.Name)
	e.FieldStart("imageRef")
	e.Str(l.ImageRef)
	e.FieldStart("quantity")
	e.Int(l.Quantity)
	e.FieldStart("maxQuantity")
	e.Int(l.MaxQuantity)
	e.FieldStart("originalPrice")
	encodeDecimal(e, l.OriginalPrice)
	e.FieldStart("price")
	encodeDecimal(e, l.Price)
	e.FieldStart("discountPercent")
	encodeDecimal(e, l.DiscountPercent)
	e.FieldStart("taxesWaived")
	e.Bool(l.TaxesWaived)
	e.FieldStart("gstRate")
	encodeDecimal(e, l.TaxRates.GST)
	e.FieldStart("pstRate")
	encodeDecimal(e, l.TaxRates.PST)
	e.FieldStart("salesPersonId")
	if l.SalesPersonID != "" {
		e.Str(l.SalesPersonID)
	} else {
		e.Null()
	}
	e.ObjEnd()
}

func encodeComment(e *jx.Encoder, c *order.Comment) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(c.ID)
	e.FieldStart("item")
	if it := c.Item; it != nil {
		e.ObjStart()
		e.FieldStart("name")
		e.Str(it.Name)
		e.FieldStart("price")
		encodeDecimal(e, it.Price)
		e.FieldStart("imageUrl")
		e.Str(it.ImageURL)
		e.FieldStart("sku")
		e.Str(it.SKU)
		e.FieldStart("discount")
		encodeDecimal(e, it.Discount)
		e.ObjEnd()
	} else {
		e.Null()
	}
	e.FieldStart("text")
	e.Str(c.Text)
	e.FieldStart("authorId")
	e.Str(c.AuthorID)
	e.FieldStart("timestamp")
	e.Int64(c.Timestamp.UnixMilli())
	e.FieldStart("reply")
	e.Str(c.Reply)
	e.FieldStart("requiresReply")
	e.Bool(c.RequiresReply)
	e.ObjEnd()
}

func encodeDecimal(e *jx.Encoder, v decimal.Decimal) {
	e.Num(jx.Num(v.String()))
}

// rateFields records which tax rate fields a blob carried.
type rateFields struct {
	gst, pst bool
}

// orderState is an order being decoded together with the rate fields seen
// for the order and for each of its lines.
type orderState struct {
	o         *order.Order
	rates     rateFields
	lineRates []rateFields
}

func newOrderState() *orderState {
	return &orderState{o: &order.Order{}}
}

func (s *orderState) finish(defaults pricing.Rates) *order.Order {
	o := s.o
	if !s.rates.gst {
		o.Rates.GST = defaults.GST
	}
	if !s.rates.pst {
		o.Rates.PST = defaults.PST
	}
	for i, seen := range s.lineRates {
		l := &o.Items[i]
		if !seen.gst {
			l.TaxRates.GST = o.Rates.GST
		}
		if !seen.pst {
			l.TaxRates.PST = o.Rates.PST
		}
	}
	normalize(o)
	return o
}

func (s *orderState) decodeField(d *jx.Decoder, key string) error {
	o := s.o
	switch key {
	case "lineItems":
		return d.Arr(func(d *jx.Decoder) error {
			var l order.LineItem
			seen, err := decodeLineItem(d, &l)
			if err != nil {
				return err
			}
			o.Items = append(o.Items, l)
			s.lineRates = append(s.lineRates, seen)
			return nil
		})
	case "overallDiscountPercent":
		v, err := decodeDecimal(d)
		o.OverallDiscount = v
		return err
	case "defaultSalesPersonId":
		v, err := decodeOptString(d)
		o.DefaultSalesPersonID = v
		return err
	case "taxConfig":
		return d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "gstRate":
				v, err := decodeDecimal(d)
				o.Rates.GST, s.rates.gst = v, true
				return err
			case "pstRate":
				v, err := decodeDecimal(d)
				o.Rates.PST, s.rates.pst = v, true
				return err
			default:
				return d.Skip()
			}
		})
	case "customer":
		if d.Next() == jx.Null {
			o.Customer = nil
			return d.Null()
		}
		var c order.Customer
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var (
				v   string
				err error
			)
			switch key {
			case "id", "name", "phone", "email", "note":
				v, err = decodeOptString(d)
			default:
				return d.Skip()
			}
			switch key {
			case "id":
				c.ID = v
			case "name":
				c.Name = v
			case "phone":
				c.Phone = v
			case "email":
				c.Email = v
			case "note":
				c.Note = v
			}
			return err
		}); err != nil {
			return errors.Wrap(err, "customer")
		}
		o.Customer = &c
		return nil
	case "comments":
		return d.Arr(func(d *jx.Decoder) error {
			var c order.Comment
			if err := decodeComment(d, &c); err != nil {
				return err
			}
			o.Comments = append(o.Comments, c)
			return nil
		})
	case "payments":
		return d.Arr(func(d *jx.Decoder) error {
			raw, err := d.Raw()
			if err != nil {
				return err
			}
			o.Payments = append(o.Payments, order.Payment(append([]byte(nil), raw...)))
			return nil
		})
	case "approvalList":
		return d.Arr(func(d *jx.Decoder) error {
			var a order.Approval
			if err := d.Obj(func(d *jx.Decoder, key string) error {
				var err error
				switch key {
				case "managerId":
					a.ManagerID, err = decodeOptString(d)
				case "approvalId":
					a.ApprovalID, err = decodeOptString(d)
				case "itemId":
					a.ItemID, err = decodeOptString(d)
				case "isOverallDiscount":
					a.IsOverallDiscount, err = d.Bool()
				default:
					err = d.Skip()
				}
				return err
			}); err != nil {
				return err
			}
			o.Approvals = append(o.Approvals, a)
			return nil
		})
	default:
		// taxes, total and unknown fields are derived or foreign.
		return d.Skip()
	}
}

func decodeLineItem(d *jx.Decoder, l *order.LineItem) (rateFields, error) {
	var seen rateFields
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "itemId":
			l.ItemID, err = decodeOptString(d)
		case "sku":
			l.SKU, err = decodeOptString(d)
		case "name":
			l.Name, err = decodeOptString(d)
		case "imageRef":
			l.ImageRef, err = decodeOptString(d)
		case "quantity":
			l.Quantity, err = d.Int()
		case "maxQuantity":
			l.MaxQuantity, err = d.Int()
		case "originalPrice":
			l.OriginalPrice, err = decodeDecimal(d)
		case "price":
			l.Price, err = decodeDecimal(d)
		case "discountPercent":
			l.DiscountPercent, err = decodeDecimal(d)
		case "taxesWaived":
			l.TaxesWaived, err = d.Bool()
		case "gstRate":
			l.TaxRates.GST, err = decodeDecimal(d)
			seen.gst = true
		case "pstRate":
			l.TaxRates.PST, err = decodeDecimal(d)
			seen.pst = true
		case "salesPersonId":
			l.SalesPersonID, err = decodeOptString(d)
		default:
			err = d.Skip()
		}
		return errors.Wrapf(err, "line item %q", key)
	})
	return seen, err
}

func decodeComment(d *jx.Decoder, c *order.Comment) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			c.ID, err = decodeOptString(d)
		case "item":
			if d.Next() == jx.Null {
				return d.Null()
			}
			it := &order.CommentItem{}
			err = d.Obj(func(d *jx.Decoder, key string) error {
				var err error
				switch key {
				case "name":
					it.Name, err = decodeOptString(d)
				case "price":
					it.Price, err = decodeDecimal(d)
				case "imageUrl":
					it.ImageURL, err = decodeOptString(d)
				case "sku":
					it.SKU, err = decodeOptString(d)
				case "discount":
					it.Discount, err = decodeDecimal(d)
				default:
					err = d.Skip()
				}
				return err
			})
			c.Item = it
		case "text":
			c.Text, err = decodeOptString(d)
		case "authorId":
			c.AuthorID, err = decodeOptString(d)
		case "timestamp":
			var ms int64
			ms, err = d.Int64()
			c.Timestamp = time.UnixMilli(ms).UTC()
		case "reply":
			c.Reply, err = decodeOptString(d)
		case "requiresReply":
			c.RequiresReply, err = d.Bool()
		default:
			err = d.Skip()
		}
		return err
	})
}

// decodeDecimal accepts JSON numbers, numeric strings and null (zero).
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	switch tt := d.Next(); tt {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(n.String())
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(s)
	case jx.Null:
		return decimal.Zero, d.Null()
	default:
		return decimal.Zero, errors.Errorf("unexpected %s for decimal", tt)
	}
}

func decodeOptString(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}

// normalize restores invariants that a hand-edited or older blob may break.
// Lines sharing a key are folded into the first one.
func normalize(o *order.Order) {
	seen := make(map[order.Key]int, len(o.Items))
	items := o.Items[:0]
	for _, l := range o.Items {
		if l.MaxQuantity < 1 {
			l.MaxQuantity = 1
		}
		l.Quantity = max(l.Quantity, 1)
		if i, ok := seen[l.Key()]; ok {
			first := &items[i]
			first.Quantity = min(first.Quantity+l.Quantity, first.MaxQuantity)
			continue
		}
		l.Quantity = min(l.Quantity, l.MaxQuantity)
		seen[l.Key()] = len(items)
		items = append(items, l)
	}
	o.Items = items
	o.OverallDiscount = pricing.ClampPercent(o.OverallDiscount)
}
