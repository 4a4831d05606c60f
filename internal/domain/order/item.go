package order

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/oolio-pos/internal/domain/pricing"
	"github.com/xenking/oolio-pos/internal/domain/product"
)

// Key identifies a line item within an order. Price is deliberately not part
// of the key: re-adding a product at a different price merges into the
// existing line.
type Key struct {
	ItemID string
	SKU    string
}

// KeyOf returns the line key for a catalog product.
func KeyOf(p product.Product) Key {
	return Key{ItemID: p.ItemID, SKU: p.SKU}
}

// LineItem is one product entry in an order.
type LineItem struct {
	ItemID          string
	SKU             string
	Name            string
	ImageRef        string
	Quantity        int
	MaxQuantity     int
	OriginalPrice   decimal.Decimal
	Price           decimal.Decimal
	DiscountPercent decimal.Decimal
	TaxRates        pricing.Rates
	SalesPersonID   string
	TaxesWaived     bool
}

// Key returns the identity of the line.
func (l *LineItem) Key() Key {
	return Key{ItemID: l.ItemID, SKU: l.SKU}
}

// LineTotal returns price * quantity.
func (l *LineItem) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l *LineItem) setQuantity(q int) {
	if q > l.MaxQuantity {
		q = l.MaxQuantity
	}
	if q < 1 {
		q = 1
	}
	l.Quantity = q
}

func (l *LineItem) applyDiscount(percent decimal.Decimal) {
	l.DiscountPercent = pricing.ClampPercent(percent).Round(2)
	l.Price = pricing.DiscountedPrice(l.OriginalPrice, l.DiscountPercent)
}

// rederive recomputes the discount from the current price and original price.
// A price above the original is brought down to it.
func (l *LineItem) rederive() {
	if l.Price.GreaterThan(l.OriginalPrice) {
		l.Price = l.OriginalPrice
	}
	l.DiscountPercent = pricing.DerivePercent(l.Price, l.OriginalPrice)
}

func newLineItem(p product.Product, overall decimal.Decimal, rates pricing.Rates, salesPersonID string) LineItem {
	maxQty := p.MaxQuantity
	if maxQty < 1 {
		maxQty = 1
	}
	l := LineItem{
		ItemID:        p.ItemID,
		SKU:           p.SKU,
		Name:          p.Name,
		ImageRef:      p.ImageRef,
		Quantity:      1,
		MaxQuantity:   maxQty,
		OriginalPrice: p.Price.Round(2),
		TaxRates:      rates,
		SalesPersonID: salesPersonID,
	}
	l.applyDiscount(overall)
	return l
}
