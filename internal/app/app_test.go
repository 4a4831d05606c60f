package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenking/oolio-pos/internal/catalog"
	"github.com/xenking/oolio-pos/internal/domain/product"
	"github.com/xenking/oolio-pos/internal/notify"
	"github.com/xenking/oolio-pos/pkg/health"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, BackendFile, cfg.Store.Backend)
	assert.Equal(t, ".pos", cfg.Store.Dir)
	assert.Equal(t, "active-order", cfg.Store.ActiveKey)
	assert.Equal(t, "drafts", cfg.Store.DraftsKey)
	assert.Equal(t, CatalogFiles, cfg.Catalog.Source)
	assert.Equal(t, 99, cfg.Catalog.DefaultMaxQuantity)

	rates, err := cfg.Tax.Rates()
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(5).Equal(rates.GST))
	assert.True(t, decimal.NewFromInt(7).Equal(rates.PST))
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pos.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  backend: memory
tax:
  gst: "6"
  pst: "8"
`), 0o644))
	t.Setenv("POS_TAX_PST", "9.5")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	rates, err := cfg.Tax.Rates()
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(6).Equal(rates.GST))
	assert.True(t, decimal.RequireFromString("9.5").Equal(rates.PST))
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Store:   StoreConfig{Backend: BackendMemory},
			Tax:     TaxConfig{GST: "5", PST: "7"},
			Catalog: CatalogConfig{Source: CatalogFiles},
		}
	}
	c := valid()
	require.NoError(t, c.Validate())

	for _, tt := range []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"UnknownBackend", func(c *Config) { c.Store.Backend = "s3" }, `unknown store backend "s3"`},
		{"UnknownCatalog", func(c *Config) { c.Catalog.Source = "api" }, `unknown catalog source "api"`},
		{"PostgresWithoutURL", func(c *Config) { c.Store.Backend = BackendPostgres }, "database URL is required"},
		{"CatalogWithoutURL", func(c *Config) { c.Catalog.Source = CatalogPostgres }, "database URL is required"},
		{"NegativeMax", func(c *Config) { c.Catalog.DefaultMaxQuantity = -1 }, "max quantity"},
		{"BadRate", func(c *Config) { c.Tax.GST = "five" }, "parse GST rate"},
		{"NegativeRate", func(c *Config) { c.Tax.PST = "-1" }, "PST rate must not be negative"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			assert.ErrorContains(t, c.Validate(), tt.want)
		})
	}
}

func testConfig(t *testing.T) *Config {
	t.Helper()
	products := filepath.Join(t.TempDir(), "products.json.gz")
	require.NoError(t, catalog.WriteFile(products, []product.Product{{
		ItemID: "latte",
		SKU:    "LAT-12",
		Name:   "Latte",
		Price:  decimal.RequireFromString("4.75"),
	}}))

	return &Config{
		Store: StoreConfig{
			Backend:   BackendMemory,
			ActiveKey: "active-order",
			DraftsKey: "drafts",
		},
		Tax: TaxConfig{GST: "5", PST: "7"},
		Catalog: CatalogConfig{
			Source:             CatalogFiles,
			Files:              []string{products},
			DefaultMaxQuantity: 2,
			Filter:             true,
		},
	}
}

func TestOpen_Memory(t *testing.T) {
	ctx := context.Background()
	term, err := Open(ctx, zap.NewNop(), nil, testConfig(t), notify.Discard)
	require.NoError(t, err)
	t.Cleanup(term.Close)

	p, err := term.Catalog.GetByID(ctx, "latte")
	require.NoError(t, err)

	for range 3 {
		require.NoError(t, term.Engine.AddItem(ctx, *p))
	}
	assert.Equal(t, 2, term.Engine.Snapshot().Items[0].Quantity)

	_, err = term.Catalog.GetByID(ctx, "espresso")
	assert.ErrorIs(t, err, product.ErrNotFound)
}

func TestOpen_PersistentBackends(t *testing.T) {
	mr := miniredis.RunT(t)

	for _, tt := range []struct {
		name   string
		mutate func(t *testing.T, c *StoreConfig)
	}{
		{"File", func(t *testing.T, c *StoreConfig) {
			c.Backend = BackendFile
			c.Dir = t.TempDir()
		}},
		{"FileCompressed", func(t *testing.T, c *StoreConfig) {
			c.Backend = BackendFile
			c.Dir = t.TempDir()
			c.Compress = true
		}},
		{"SQLite", func(t *testing.T, c *StoreConfig) {
			c.Backend = BackendSQLite
			c.SQLitePath = filepath.Join(t.TempDir(), "state", "pos.db")
		}},
		{"Redis", func(t *testing.T, c *StoreConfig) {
			c.Backend = BackendRedis
			c.Redis.Addr = mr.Addr()
			c.Redis.Prefix = t.Name()
		}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			cfg := testConfig(t)
			tt.mutate(t, &cfg.Store)

			term, err := Open(ctx, zap.NewNop(), nil, cfg, notify.Discard)
			require.NoError(t, err)
			p, err := term.Catalog.GetByID(ctx, "latte")
			require.NoError(t, err)
			require.NoError(t, term.Engine.AddItem(ctx, *p))
			require.NoError(t, term.Engine.SaveAsDraft(ctx))
			require.NoError(t, term.Engine.AddItem(ctx, *p))
			term.Close()

			reopened, err := Open(ctx, zap.NewNop(), nil, cfg, notify.Discard)
			require.NoError(t, err)
			t.Cleanup(reopened.Close)

			assert.Len(t, reopened.Engine.Snapshot().Items, 1)
			assert.Len(t, reopened.Engine.ListDrafts(), 1)
		})
	}
}

func TestOpen_CatalogError(t *testing.T) {
	cfg := testConfig(t)
	cfg.Catalog.Files = append(cfg.Catalog.Files, filepath.Join(t.TempDir(), "missing.json"))

	_, err := Open(context.Background(), zap.NewNop(), nil, cfg, notify.Discard)
	assert.ErrorContains(t, err, "open catalog")
}

func TestOpen_Checks(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	cfg := testConfig(t)
	cfg.Store.Backend = BackendRedis
	cfg.Store.Redis.Addr = mr.Addr()

	term, err := Open(ctx, zap.NewNop(), nil, cfg, notify.Discard)
	require.NoError(t, err)
	t.Cleanup(term.Close)

	results := term.Checks.Run(ctx)
	var names []string
	for _, r := range results {
		names = append(names, r.Name)
		assert.NoError(t, r.Err, r.Name)
	}
	assert.ElementsMatch(t, []string{"redis", "store", "catalog"}, names)

	mr.Close()
	failures := health.Failures(term.Checks.Run(ctx))
	assert.Contains(t, failures, "redis")
	assert.Contains(t, failures, "store")
	assert.NotContains(t, failures, "catalog")
}

func TestOpen_EmptyCatalogCheck(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Catalog.Files = nil

	term, err := Open(ctx, zap.NewNop(), nil, cfg, notify.Discard)
	require.NoError(t, err)
	t.Cleanup(term.Close)

	assert.Equal(t, map[string]string{"catalog": "no products"}, health.Failures(term.Checks.Run(ctx)))
}
