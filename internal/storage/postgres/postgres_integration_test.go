//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xenking/oolio-pos/internal/domain/product"
	"github.com/xenking/oolio-pos/internal/storage"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "pos",
				"POSTGRES_PASSWORD": "pos",
				"POSTGRES_DB":       "pos",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(c)
	})

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	pool, err := NewPool(ctx, fmt.Sprintf("postgres://pos:pos@%s:%s/pos?sslmode=disable", host, port.Port()))
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, RunMigrations(ctx, pool))
	// Migrations are idempotent.
	require.NoError(t, RunMigrations(ctx, pool))
	return pool
}

func TestPostgres(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()

	t.Run("BlobStore", func(t *testing.T) {
		s := NewBlobStore(pool)

		_, err := s.Get(ctx, "active-order")
		require.ErrorIs(t, err, storage.ErrNotFound)

		require.NoError(t, s.Put(ctx, "active-order", []byte(`{"a":1}`)))
		require.NoError(t, s.Put(ctx, "active-order", []byte(`{"a":2}`)))

		got, err := s.Get(ctx, "active-order")
		require.NoError(t, err)
		assert.Equal(t, `{"a":2}`, string(got))
	})

	t.Run("ProductRepository", func(t *testing.T) {
		r := NewProductRepository(pool)

		require.NoError(t, r.Upsert(ctx, []product.Product{
			{ItemID: "b", SKU: "sku-b", Name: "Bagel", Price: decimal.RequireFromString("3.25"), MaxQuantity: 4},
			{ItemID: "a", SKU: "sku-a", Name: "Americano", Price: decimal.RequireFromString("4.50")},
		}))
		require.NoError(t, r.Upsert(ctx, []product.Product{
			{ItemID: "b", SKU: "sku-b", Name: "Bagel", Price: decimal.RequireFromString("3.50"), MaxQuantity: 4},
		}))

		list, err := r.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "a", list[0].ItemID)

		p, err := r.GetByID(ctx, "b")
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("3.50").Equal(p.Price))
		assert.Equal(t, 4, p.MaxQuantity)

		_, err = r.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, product.ErrNotFound)
	})
}
