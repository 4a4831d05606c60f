package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"

	"github.com/xenking/oolio-pos/internal/catalog"
	"github.com/xenking/oolio-pos/internal/storage/postgres"
)

func main() {
	var (
		databaseURL  string
		productFiles string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productFiles, "products-file", "db/seed/products.json", "comma-separated product JSON files, optionally .gz")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, strings.Split(productFiles, ",")); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL string, files []string) error {
	slog.Info("reading product files", slog.Any("paths", files))

	c, err := catalog.LoadFiles(ctx, files...)
	if err != nil {
		return errors.Wrap(err, "load products")
	}
	products, err := c.List(ctx)
	if err != nil {
		return errors.Wrap(err, "list products")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	for _, p := range products {
		if err := validate.Struct(p); err != nil {
			return errors.Wrapf(err, "product %q", p.ItemID)
		}
		if p.Price.IsNegative() {
			return errors.Errorf("product %q: negative price", p.ItemID)
		}
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	if err := postgres.NewProductRepository(pool).Upsert(ctx, products); err != nil {
		return errors.Wrap(err, "upsert products")
	}
	return nil
}
