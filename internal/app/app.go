// Package app assembles a terminal from configuration: the blob store, the
// product catalog and the order engine.
package app

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xenking/oolio-pos/internal/catalog"
	"github.com/xenking/oolio-pos/internal/domain/product"
	"github.com/xenking/oolio-pos/internal/engine"
	"github.com/xenking/oolio-pos/internal/notify"
	"github.com/xenking/oolio-pos/internal/storage"
	"github.com/xenking/oolio-pos/internal/storage/postgres"
	"github.com/xenking/oolio-pos/internal/storage/redis"
	"github.com/xenking/oolio-pos/internal/storage/sqlite"
	"github.com/xenking/oolio-pos/pkg/health"
)

const checkTimeout = 5 * time.Second

// Terminal is a wired order engine with its catalog.
type Terminal struct {
	Engine  *engine.Engine
	Catalog product.Repository
	// Checks probes the store and catalog dependencies.
	Checks *health.Checker

	closers []func()
}

// Close releases connections held by the store and the catalog.
func (t *Terminal) Close() {
	for i := len(t.closers) - 1; i >= 0; i-- {
		t.closers[i]()
	}
	t.closers = nil
}

// Open creates all dependencies and restores the engine state. m may be nil,
// in which case telemetry is disabled.
func Open(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config, sink notify.Sink) (_ *Terminal, rerr error) {
	t := &Terminal{Checks: health.New()}
	defer func() {
		if rerr != nil {
			t.Close()
		}
	}()

	rates, err := cfg.Tax.Rates()
	if err != nil {
		return nil, err
	}

	var pool *pgxpool.Pool
	if cfg.Store.Backend == BackendPostgres || cfg.Catalog.Source == CatalogPostgres {
		lg.Info("Connecting to PostgreSQL")
		pool, err = postgres.NewPool(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		t.closers = append(t.closers, pool.Close)
		t.Checks.Add("postgres", checkTimeout, pool.Ping)

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return nil, errors.Wrap(err, "run migrations")
		}
	}

	store, err := t.openStore(ctx, cfg.Store, pool)
	if err != nil {
		return nil, errors.Wrap(err, "open store")
	}
	t.Checks.Add("store", checkTimeout, func(ctx context.Context) error {
		_, err := store.Get(ctx, cfg.Store.ActiveKey)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	})

	t.Catalog, err = openCatalog(ctx, cfg.Catalog, pool)
	if err != nil {
		return nil, errors.Wrap(err, "open catalog")
	}
	t.Checks.Add("catalog", checkTimeout, func(ctx context.Context) error {
		products, err := t.Catalog.List(ctx)
		if err != nil {
			return err
		}
		if len(products) == 0 {
			return errors.New("no products")
		}
		return nil
	})

	opts := engine.Options{
		Logger:             lg.Named("engine"),
		Notifier:           sink,
		Rates:              rates,
		DefaultMaxQuantity: cfg.Catalog.DefaultMaxQuantity,
		ActiveKey:          cfg.Store.ActiveKey,
		DraftsKey:          cfg.Store.DraftsKey,
	}
	if m != nil {
		opts.MeterProvider = m.MeterProvider()
		opts.TracerProvider = m.TracerProvider()
	}
	t.Engine, err = engine.Open(ctx, store, opts)
	if err != nil {
		return nil, errors.Wrap(err, "open engine")
	}

	lg.Debug("Terminal ready",
		zap.String("store", cfg.Store.Backend),
		zap.String("catalog", cfg.Catalog.Source),
	)
	return t, nil
}

func (t *Terminal) openStore(ctx context.Context, cfg StoreConfig, pool *pgxpool.Pool) (storage.BlobStore, error) {
	var store storage.BlobStore
	switch cfg.Backend {
	case BackendMemory:
		store = storage.NewMemory()
	case BackendFile:
		dir, err := storage.NewDir(cfg.Dir)
		if err != nil {
			return nil, err
		}
		store = dir
	case BackendPostgres:
		store = postgres.NewBlobStore(pool)
	case BackendRedis:
		client, err := redis.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		t.closers = append(t.closers, func() { _ = client.Close() })
		t.Checks.Add("redis", checkTimeout, func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		store = redis.NewBlobStore(client, cfg.Redis.Prefix)
	case BackendSQLite:
		s, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		t.closers = append(t.closers, func() { _ = s.Close() })
		store = s
	default:
		return nil, errors.Errorf("unknown store backend %q", cfg.Backend)
	}

	if cfg.Compress {
		store = storage.NewGzip(store, 0)
	}
	return store, nil
}

func openCatalog(ctx context.Context, cfg CatalogConfig, pool *pgxpool.Pool) (product.Repository, error) {
	var repo product.Repository
	switch cfg.Source {
	case CatalogFiles:
		c, err := catalog.LoadFiles(ctx, cfg.Files...)
		if err != nil {
			return nil, err
		}
		repo = c
	case CatalogPostgres:
		repo = postgres.NewProductRepository(pool)
	default:
		return nil, errors.Errorf("unknown catalog source %q", cfg.Source)
	}

	if !cfg.Filter {
		return repo, nil
	}
	return catalog.NewFiltered(ctx, repo)
}
