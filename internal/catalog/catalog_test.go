package catalog

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/oolio-pos/internal/domain/product"
)

func p(id, price string) product.Product {
	return product.Product{
		ItemID:      id,
		SKU:         "sku-" + id,
		Name:        "Product " + id,
		Price:       decimal.RequireFromString(price),
		MaxQuantity: 10,
	}
}

func TestCatalog(t *testing.T) {
	ctx := context.Background()
	c := New([]product.Product{p("a", "1.00"), p("b", "2.00"), p("a", "3.00")})

	assert.Equal(t, 2, c.Len())

	got, err := c.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("3").Equal(got.Price))

	_, err = c.GetByID(ctx, "z")
	assert.ErrorIs(t, err, product.ErrNotFound)

	list, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ItemID)
	assert.Equal(t, "b", list[1].ItemID)
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "drinks.json.gz")
	second := filepath.Join(dir, "food.json")
	require.NoError(t, WriteFile(first, []product.Product{p("a", "1.00"), p("b", "2.50")}))
	require.NoError(t, WriteFile(second, []product.Product{p("c", "4.00"), p("a", "1.25")}))

	c, err := LoadFiles(context.Background(), first, second)
	require.NoError(t, err)

	assert.Equal(t, 3, c.Len())
	a, err := c.GetByID(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1.25").Equal(a.Price))
	assert.Equal(t, "sku-a", a.SKU)
	assert.Equal(t, 10, a.MaxQuantity)
}

func TestLoadFiles_NoFiles(t *testing.T) {
	c, err := LoadFiles(context.Background())
	require.NoError(t, err)
	assert.Zero(t, c.Len())
}

func TestLoadFiles_Errors(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	require.NoError(t, WriteFile(good, []product.Product{p("a", "1")}))

	notGzip := filepath.Join(dir, "plain.gz")
	require.NoError(t, os.WriteFile(notGzip, []byte(`[]`), 0o644))

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`[{"itemId": 1}]`), 0o644))

	for _, tt := range []struct {
		name string
		path string
	}{
		{"Missing", filepath.Join(dir, "missing.json")},
		{"NotGzip", notGzip},
		{"BadProduct", broken},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFiles(context.Background(), good, tt.path)
			assert.ErrorContains(t, err, tt.path)
		})
	}
}

type countingRepo struct {
	product.Repository
	gets atomic.Int64
}

func (r *countingRepo) GetByID(ctx context.Context, itemID string) (*product.Product, error) {
	r.gets.Add(1)
	return r.Repository.GetByID(ctx, itemID)
}

func TestFiltered(t *testing.T) {
	ctx := context.Background()
	repo := &countingRepo{Repository: New([]product.Product{p("a", "1"), p("b", "2")})}

	f, err := NewFiltered(ctx, repo)
	require.NoError(t, err)

	got, err := f.GetByID(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "b", got.ItemID)
	assert.Equal(t, int64(1), repo.gets.Load())

	_, err = f.GetByID(ctx, "definitely-not-a-product")
	assert.ErrorIs(t, err, product.ErrNotFound)

	list, err := f.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestFiltered_EmptyCatalog(t *testing.T) {
	ctx := context.Background()
	f, err := NewFiltered(ctx, New(nil))
	require.NoError(t, err)

	_, err = f.GetByID(ctx, "a")
	assert.ErrorIs(t, err, product.ErrNotFound)
}
