// Package engine owns the active sale and the parked drafts.
//
// Every mutating call runs against a copy of the current state, is swapped
// in only when it succeeds and is then written through to the blob store.
// Calls are serialized; readers get copies.
package engine

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/oolio-pos/internal/codec"
	"github.com/xenking/oolio-pos/internal/domain/order"
	"github.com/xenking/oolio-pos/internal/domain/pricing"
	"github.com/xenking/oolio-pos/internal/notify"
	"github.com/xenking/oolio-pos/internal/storage"
)

const instrumentationName = "github.com/xenking/oolio-pos/internal/engine"

// Default blob keys.
const (
	DefaultActiveKey = "active-order"
	DefaultDraftsKey = "drafts"
)

// Options configures an Engine. Zero values are replaced with defaults.
type Options struct {
	Logger    *zap.Logger
	Notifier  notify.Sink
	Validator *validator.Validate

	// Rates are the default tax rates of a fresh order.
	Rates pricing.Rates
	// DefaultMaxQuantity replaces a zero catalog max quantity.
	DefaultMaxQuantity int

	ActiveKey string
	DraftsKey string

	Clock func() time.Time
	NewID func() string

	MeterProvider  metric.MeterProvider
	TracerProvider trace.TracerProvider
}

func (o *Options) setDefaults() {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Notifier == nil {
		o.Notifier = notify.Discard
	}
	if o.Validator == nil {
		o.Validator = validator.New(validator.WithRequiredStructEnabled())
	}
	if o.ActiveKey == "" {
		o.ActiveKey = DefaultActiveKey
	}
	if o.DraftsKey == "" {
		o.DraftsKey = DefaultDraftsKey
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.NewID == nil {
		o.NewID = func() string { return uuid.New().String() }
	}
	if o.MeterProvider == nil {
		o.MeterProvider = metricnoop.NewMeterProvider()
	}
	if o.TracerProvider == nil {
		o.TracerProvider = tracenoop.NewTracerProvider()
	}
}

// Engine is the order state engine of a single terminal.
type Engine struct {
	store    storage.BlobStore
	lg       *zap.Logger
	sink     notify.Sink
	validate *validator.Validate
	tracer   trace.Tracer

	rates      pricing.Rates
	defaultMax int
	activeKey  string
	draftsKey  string
	now        func() time.Time
	newID      func() string

	mutations       metric.Int64Counter
	persistFailures metric.Int64Counter

	mu     sync.Mutex
	active *order.Order
	drafts []order.Draft
}

// Open restores the engine state from store. Missing or unreadable blobs
// start from empty defaults; they are logged, not returned.
func Open(ctx context.Context, store storage.BlobStore, opts Options) (*Engine, error) {
	if opts.Logger == nil {
		opts.Logger = zctx.From(ctx)
	}
	opts.setDefaults()

	meter := opts.MeterProvider.Meter(instrumentationName)
	mutations, err := meter.Int64Counter("pos.engine.mutations",
		metric.WithDescription("Committed order mutations"),
		metric.WithUnit("{mutation}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create mutations counter")
	}
	persistFailures, err := meter.Int64Counter("pos.engine.persist.failures",
		metric.WithDescription("Failed blob writes"),
		metric.WithUnit("{write}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create persist failures counter")
	}

	e := &Engine{
		store:           store,
		lg:              opts.Logger,
		sink:            opts.Notifier,
		validate:        opts.Validator,
		tracer:          opts.TracerProvider.Tracer(instrumentationName),
		rates:           opts.Rates,
		defaultMax:      opts.DefaultMaxQuantity,
		activeKey:       opts.ActiveKey,
		draftsKey:       opts.DraftsKey,
		now:             opts.Clock,
		newID:           opts.NewID,
		mutations:       mutations,
		persistFailures: persistFailures,
	}
	e.active = e.loadActive(ctx)
	e.drafts = e.loadDrafts(ctx)

	e.lg.Debug("Engine opened",
		zap.Int("items", len(e.active.Items)),
		zap.Int("drafts", len(e.drafts)),
	)
	return e, nil
}

func (e *Engine) loadActive(ctx context.Context) *order.Order {
	data, ok := e.read(ctx, e.activeKey)
	if !ok {
		return order.New(e.rates)
	}
	o, err := codec.DecodeOrder(data, e.rates)
	if err != nil {
		e.lg.Warn("Discarding unreadable active order", zap.String("key", e.activeKey), zap.Error(err))
		return order.New(e.rates)
	}
	return o
}

func (e *Engine) loadDrafts(ctx context.Context) []order.Draft {
	data, ok := e.read(ctx, e.draftsKey)
	if !ok {
		return nil
	}
	drafts, err := codec.DecodeDrafts(data, e.rates)
	if err != nil {
		e.lg.Warn("Discarding unreadable drafts", zap.String("key", e.draftsKey), zap.Error(err))
		return nil
	}
	return drafts
}

func (e *Engine) read(ctx context.Context, key string) ([]byte, bool) {
	data, err := e.store.Get(ctx, key)
	switch {
	case err == nil:
		return data, true
	case errors.Is(err, storage.ErrNotFound):
		return nil, false
	default:
		e.lg.Warn("Failed to read state", zap.String("key", key), zap.Error(err))
		return nil, false
	}
}

// txn is the working copy a mutation operates on.
type txn struct {
	order  *order.Order
	drafts []order.Draft

	changed       bool
	draftsChanged bool
}

// update runs fn on a copy of the state and commits the copy when fn
// succeeds and reports a change. Validation errors are forwarded to the
// notification sink before being returned.
func (e *Engine) update(ctx context.Context, op string, fn func(tx *txn) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	tx := &txn{
		order:  e.active.Clone(),
		drafts: slices.Clone(e.drafts),
	}
	if err := fn(tx); err != nil {
		if IsValidation(err) {
			e.sink.Error(ctx, err.Error())
		}
		return err
	}
	if !tx.changed && !tx.draftsChanged {
		return nil
	}

	e.active = tx.order
	if tx.draftsChanged {
		e.drafts = tx.drafts
	}
	e.mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))

	e.persist(ctx, e.activeKey, codec.EncodeOrder(e.active))
	if tx.draftsChanged {
		e.persist(ctx, e.draftsKey, codec.EncodeDrafts(e.drafts))
	}
	return nil
}

// apply is update for transitions on the active order alone. fn reports
// false for a stale line reference, which is a silent no-op.
func (e *Engine) apply(ctx context.Context, op string, fn func(o *order.Order) bool) error {
	return e.update(ctx, op, func(tx *txn) error {
		tx.changed = fn(tx.order)
		return nil
	})
}

func (e *Engine) persist(ctx context.Context, key string, data []byte) {
	ctx, span := e.tracer.Start(ctx, "engine.persist",
		trace.WithAttributes(attribute.String("pos.blob.key", key)),
	)
	defer span.End()

	if err := e.store.Put(ctx, key, data); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "put failed")
		e.persistFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("key", key)))
		e.lg.Error("Failed to persist state", zap.String("key", key), zap.Error(err))
	}
}
