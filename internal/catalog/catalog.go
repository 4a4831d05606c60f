// Package catalog loads the product catalog the terminal sells from.
package catalog

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	pgzip "github.com/klauspost/pgzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/oolio-pos/internal/domain/product"
)

var _ product.Repository = (*Catalog)(nil)

// Catalog is an in-memory product.Repository.
type Catalog struct {
	products []product.Product
	byID     map[string]int
}

// New returns a catalog of products. A later product replaces an earlier one
// with the same item ID.
func New(products []product.Product) *Catalog {
	c := &Catalog{byID: make(map[string]int, len(products))}
	for _, p := range products {
		if i, ok := c.byID[p.ItemID]; ok {
			c.products[i] = p
			continue
		}
		c.byID[p.ItemID] = len(c.products)
		c.products = append(c.products, p)
	}
	return c
}

// List returns all products in load order.
func (c *Catalog) List(context.Context) ([]product.Product, error) {
	return slices.Clone(c.products), nil
}

func (c *Catalog) GetByID(_ context.Context, itemID string) (*product.Product, error) {
	i, ok := c.byID[itemID]
	if !ok {
		return nil, product.ErrNotFound
	}
	p := c.products[i]
	return &p, nil
}

// Len returns the number of distinct products.
func (c *Catalog) Len() int {
	return len(c.products)
}

// LoadFiles reads product files concurrently and merges them in argument
// order. Each file holds a JSON array of products; files ending in .gz are
// gzip-compressed.
func LoadFiles(ctx context.Context, paths ...string) (*Catalog, error) {
	results := make([][]product.Product, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			products, err := readFile(ctx, path)
			if err != nil {
				return errors.Wrapf(err, "load %s", path)
			}
			zctx.From(ctx).Debug("Catalog file loaded",
				zap.String("path", path),
				zap.Int("products", len(products)),
			)
			results[i] = products
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return New(slices.Concat(results...)), nil
}

func readFile(ctx context.Context, path string) ([]product.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if isGzip(path) {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "create gzip reader")
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	dec := json.NewDecoder(r)
	if _, err := dec.Token(); err != nil {
		return nil, errors.Wrap(err, "read array start")
	}
	var products []product.Product
	for dec.More() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var p product.Product
		if err := dec.Decode(&p); err != nil {
			return nil, errors.Wrapf(err, "decode product %d", len(products))
		}
		products = append(products, p)
	}
	return products, nil
}

// WriteFile writes products as a JSON array, compressed when path ends in
// .gz.
func WriteFile(path string, products []product.Product) (rerr error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create")
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = errors.Wrap(err, "close")
		}
	}()

	if products == nil {
		products = []product.Product{}
	}
	if !isGzip(path) {
		return json.NewEncoder(f).Encode(products)
	}

	gz := pgzip.NewWriter(f)
	if err := json.NewEncoder(gz).Encode(products); err != nil {
		return errors.Wrap(err, "encode")
	}
	return gz.Close()
}

func isGzip(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".gz")
}
