package catalog

import (
	"context"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"

	"github.com/xenking/oolio-pos/internal/domain/product"
)

const bloomFPR = 0.001

var _ product.Repository = (*Filtered)(nil)

// Filtered answers lookups for unknown item IDs from a bloom filter, without
// reaching the underlying repository.
type Filtered struct {
	next   product.Repository
	filter *bloom.BloomFilter
}

// NewFiltered builds the filter from next.List. Products added to next
// afterwards are reported as not found until the filter is rebuilt.
func NewFiltered(ctx context.Context, next product.Repository) (*Filtered, error) {
	products, err := next.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}

	filter := bloom.NewWithEstimates(uint(max(len(products), 1)), bloomFPR)
	for _, p := range products {
		filter.AddString(p.ItemID)
	}
	return &Filtered{next: next, filter: filter}, nil
}

func (f *Filtered) List(ctx context.Context) ([]product.Product, error) {
	return f.next.List(ctx)
}

func (f *Filtered) GetByID(ctx context.Context, itemID string) (*product.Product, error) {
	if !f.filter.TestString(itemID) {
		return nil, product.ErrNotFound
	}
	return f.next.GetByID(ctx, itemID)
}
