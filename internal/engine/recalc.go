package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"soukly/internal/domain"
	"soukly/internal/metrics"
	"soukly/internal/pricing"
)

// ProductStore is the slice of the product repository the engine needs.
type ProductStore interface {
	EligibleIDs(ctx context.Context) ([]string, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	SaveDerived(ctx context.Context, p *domain.Product) error
}

// SignalSource produces behavioral snapshots. Implementations must not
// fail: degraded reads come back as zeros or last known values.
type SignalSource interface {
	Snapshot(ctx context.Context, productID, sellerID string) pricing.SignalSnapshot
}

// Summary is the published result of one batch run.
type Summary struct {
	Total    int           `json:"total"`
	Updated  int           `json:"updated"`
	Errored  int           `json:"errored"`
	Duration time.Duration `json:"duration_ms"`
}

// Engine recomputes the derived pricing and visibility state of the
// catalog: snapshot → dynamic markup → price resolution → visibility
// score → one persisted write per product.
type Engine struct {
	store   ProductStore
	signals SignalSource
	cfg     pricing.Config

	chunkSize int
	workers   int
	log       zerolog.Logger
	now       func() time.Time
}

type Option func(*Engine)

func WithChunkSize(n int) Option { return func(e *Engine) { e.chunkSize = n } }
func WithWorkers(n int) Option   { return func(e *Engine) { e.workers = n } }
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(store ProductStore, signals SignalSource, cfg pricing.Config, log zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		signals:   signals,
		cfg:       cfg,
		chunkSize: 50,
		workers:   8,
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.chunkSize < 1 {
		e.chunkSize = 1
	}
	if e.workers < 1 {
		e.workers = 1
	}
	return e
}

// RecalculateAll runs one full cycle over the eligible catalog. A
// failing product is logged and counted, never fatal to the run; the
// only error returned is a failure to list the catalog itself.
func (e *Engine) RecalculateAll(ctx context.Context) (Summary, error) {
	start := e.now()

	ids, err := e.store.EligibleIDs(ctx)
	if err != nil {
		return Summary{}, err
	}

	var (
		mu      sync.Mutex
		updated int
		errored int
	)

	for chunkStart := 0; chunkStart < len(ids); chunkStart += e.chunkSize {
		if ctx.Err() != nil {
			break
		}
		chunk := ids[chunkStart:min(chunkStart+e.chunkSize, len(ids))]

		var wg sync.WaitGroup
		sem := make(chan struct{}, e.workers)
		for _, id := range chunk {
			wg.Add(1)
			sem <- struct{}{}
			go func(id string) {
				defer wg.Done()
				defer func() { <-sem }()
				if _, err := e.RecalculateOne(ctx, id); err != nil {
					e.log.Error().Err(err).Str("product_id", id).Msg("recalculation failed")
					mu.Lock()
					errored++
					mu.Unlock()
					return
				}
				mu.Lock()
				updated++
				mu.Unlock()
			}(id)
		}
		wg.Wait()
	}

	summary := Summary{
		Total:    len(ids),
		Updated:  updated,
		Errored:  errored,
		Duration: e.now().Sub(start),
	}
	metrics.RecordRun(summary.Updated, summary.Errored, summary.Duration)
	e.log.Info().
		Int("total", summary.Total).
		Int("updated", summary.Updated).
		Int("errored", summary.Errored).
		Dur("duration", summary.Duration).
		Msg("recalculation run finished")
	return summary, nil
}

// RecalculateOne refreshes a single product's derived state, used both
// by the batch run and on demand right after an order or favorite
// event. The computation is idempotent: unchanged signals produce
// identical persisted values.
func (e *Engine) RecalculateOne(ctx context.Context, productID string) (*domain.Product, error) {
	p, err := e.store.Get(ctx, productID)
	if err != nil {
		return nil, err
	}

	snap := e.signals.Snapshot(ctx, p.ID, p.SellerID)

	// A degraded snapshot carries substituted zeros, not observations;
	// pricing on it would reward an outage (an empty shelf reads as a
	// scarcity lift). The cycle prices with no dynamic markup instead.
	var markup pricing.MarkupBreakdown
	if !snap.Degraded {
		markup = pricing.DynamicMarkup(e.cfg, snap, p.TotalStock())
	}
	pricing.ResolvePrices(e.cfg, p, markup.Total)

	p.VisibilityScore = pricing.VisibilityScore(e.cfg, snap, pricing.VisibilityInputs{
		DiscountPercent: pricing.DiscountPercent(p),
		AgeDays:         p.AgeDays(e.now()),
		Featured:        p.Featured,
	})

	p.Views24h = snap.Views24h
	p.CartCount24h = snap.CartCount24h
	p.Sales24h = snap.Sales24h
	p.FavoritesCount = snap.FavoritesCount
	p.ConversionRate = snap.ConversionRate
	p.StoreRating = snap.StoreRating

	if err := e.store.SaveDerived(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
