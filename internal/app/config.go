package app

import (
	"os"
	"slices"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/oolio-pos/internal/domain/pricing"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
)

// Catalog sources.
const (
	CatalogFiles    = "files"
	CatalogPostgres = "postgres"
)

// Config holds the complete terminal configuration, loadable from environment
// variables (POS_ prefix) or YAML config files.
type Config struct {
	Store   StoreConfig
	Tax     TaxConfig
	Catalog CatalogConfig
}

// StoreConfig selects where the active order and drafts are persisted.
type StoreConfig struct {
	Backend     string `default:"file" usage:"State backend: memory, file, postgres, redis or sqlite"`
	Dir         string `default:".pos" usage:"Directory for the file backend"`
	DatabaseURL string `usage:"PostgreSQL connection URL (POS_STORE_DATABASE_URL or DATABASE_URL)"`
	SQLitePath  string `default:".pos/pos.db" usage:"Database file for the sqlite backend"`
	Redis       RedisConfig
	Compress    bool   `default:"false" usage:"Gzip blobs before storing them"`
	ActiveKey   string `default:"active-order" usage:"Key of the active order blob"`
	DraftsKey   string `default:"drafts" usage:"Key of the drafts blob"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string `default:"localhost:6379" usage:"Redis address"`
	Password string `usage:"Redis password"`
	DB       int    `default:"0" usage:"Redis database number"`
	Prefix   string `default:"pos" usage:"Key prefix, e.g. a terminal ID"`
}

// TaxConfig holds the default tax rates, in percent.
type TaxConfig struct {
	GST string `default:"5" usage:"Default GST rate"`
	PST string `default:"7" usage:"Default PST rate"`
}

// CatalogConfig selects where products come from.
type CatalogConfig struct {
	Source             string   `default:"files" usage:"Product source: files or postgres"`
	Files              []string `usage:"Product JSON files, optionally gzip-compressed"`
	DefaultMaxQuantity int      `default:"99" usage:"Max quantity for products that set none"`
	Filter             bool     `default:"true" usage:"Answer unknown item IDs from a bloom filter"`
}

// LoadConfig loads configuration from environment variables and YAML config
// files. A non-empty path replaces the default file locations and must exist.
func LoadConfig(path string) (*Config, error) {
	files := []string{"pos.yaml", "/etc/pos/config.yaml"}
	if path != "" {
		files = []string{path}
	}

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix:          "POS",
		SkipFlags:          true,
		AllowUnknownEnvs:   true,
		Files:              files,
		FailOnFileNotFound: path != "",
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
			".yml":  aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps the conventional DATABASE_URL variable to the
// store configuration.
func (c *Config) applyPlatformDefaults() {
	if c.Store.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.Store.DatabaseURL = v
		}
	}
}

// Validate checks option values and cross-field requirements.
func (c *Config) Validate() error {
	backends := []string{BackendMemory, BackendFile, BackendPostgres, BackendRedis, BackendSQLite}
	if !slices.Contains(backends, c.Store.Backend) {
		return errors.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if !slices.Contains([]string{CatalogFiles, CatalogPostgres}, c.Catalog.Source) {
		return errors.Errorf("unknown catalog source %q", c.Catalog.Source)
	}
	if c.Store.DatabaseURL == "" && (c.Store.Backend == BackendPostgres || c.Catalog.Source == CatalogPostgres) {
		return errors.New("database URL is required: set POS_STORE_DATABASE_URL or DATABASE_URL")
	}
	if c.Catalog.DefaultMaxQuantity < 0 {
		return errors.New("default max quantity must not be negative")
	}
	if _, err := c.Tax.Rates(); err != nil {
		return err
	}
	return nil
}

// Rates parses the configured default tax rates.
func (c TaxConfig) Rates() (pricing.Rates, error) {
	var rates pricing.Rates
	for _, r := range []struct {
		t   pricing.TaxType
		raw string
	}{
		{pricing.GST, c.GST},
		{pricing.PST, c.PST},
	} {
		v, err := decimal.NewFromString(r.raw)
		if err != nil {
			return pricing.Rates{}, errors.Wrapf(err, "parse %s rate", r.t)
		}
		if v.IsNegative() {
			return pricing.Rates{}, errors.Errorf("%s rate must not be negative", r.t)
		}
		rates = rates.With(r.t, v)
	}
	return rates, nil
}
