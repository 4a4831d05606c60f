package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/oolio-pos/internal/domain/product"
)

const (
	listProductsSQL = `SELECT item_id, sku, name, image_ref, price, max_quantity
		FROM products ORDER BY item_id`

	getProductByIDSQL = `SELECT item_id, sku, name, image_ref, price, max_quantity
		FROM products WHERE item_id = $1`

	upsertProductSQL = `INSERT INTO products (item_id, sku, name, image_ref, price, max_quantity)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (item_id) DO UPDATE SET
			sku = EXCLUDED.sku,
			name = EXCLUDED.name,
			image_ref = EXCLUDED.image_ref,
			price = EXCLUDED.price,
			max_quantity = EXCLUDED.max_quantity`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products from the catalog ordered by item ID.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its item ID.
func (r *ProductRepository) GetByID(ctx context.Context, itemID string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, itemID)
	if err != nil {
		return nil, errors.Wrapf(err, "get product %q", itemID)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %q", itemID)
	}
	return &p, nil
}

// Upsert inserts the products or replaces existing rows with the same item
// ID, in a single batch.
func (r *ProductRepository) Upsert(ctx context.Context, products []product.Product) error {
	batch := &pgx.Batch{}
	for _, p := range products {
		batch.Queue(upsertProductSQL, p.ItemID, p.SKU, p.Name, p.ImageRef, p.Price, p.MaxQuantity)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return errors.Wrap(err, "upsert products")
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(&p.ItemID, &p.SKU, &p.Name, &p.ImageRef, &p.Price, &p.MaxQuantity)
	return p, err
}
