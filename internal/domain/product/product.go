package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item that can be scanned into a sale.
type Product struct {
	ItemID      string          `json:"itemId" validate:"required"`
	SKU         string          `json:"sku" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	ImageRef    string          `json:"imageRef"`
	Price       decimal.Decimal `json:"price"`
	MaxQuantity int             `json:"maxQuantity" validate:"gte=0"`
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, itemID string) (*Product, error)
}
