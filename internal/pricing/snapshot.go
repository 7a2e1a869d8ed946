package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

// SignalSnapshot is the read-only behavioral state of one product at
// the moment a recalculation runs.
type SignalSnapshot struct {
	Views24h       int `json:"views_24h"`
	CartCount24h   int `json:"cart_count_24h"`
	Sales24h       int `json:"sales_24h"`
	FavoritesCount int `json:"favorites_count"`

	LifetimeOrderCount    int `json:"lifetime_order_count"`
	LifetimeViewCount     int `json:"lifetime_view_count"`
	LifetimeFavoriteCount int `json:"lifetime_favorite_count"`

	ConversionRate float64 `json:"conversion_rate"`
	StoreRating    float64 `json:"store_rating"`

	// Degraded marks a snapshot where a failed read had to fall back
	// to zero because no cached value existed. Such zeros are not real
	// observations; the engine skips the dynamic markup for the cycle.
	Degraded bool `json:"-"`
}

type OrderSignals interface {
	SalesCount(ctx context.Context, productID string, since time.Time) (int, error)
	LifetimeOrderCount(ctx context.Context, productID string) (int, error)
}

type ViewSignals interface {
	ViewCount(ctx context.Context, productID string, since time.Time) (int, error)
	LifetimeViewCount(ctx context.Context, productID string) (int, error)
}

type CartSignals interface {
	CartCount(ctx context.Context, productID string, since time.Time) (int, error)
}

type FavoriteSignals interface {
	FavoriteCount(ctx context.Context, productID string) (int, error)
}

type RatingSignals interface {
	// StoreRating aggregates the seller's review rating, falling back to
	// the product's own average when the seller has none.
	StoreRating(ctx context.Context, sellerID, productID string) (float64, error)
}

// SignalReader gathers a SignalSnapshot from the behavioral stores.
// It never returns an error: an unreachable or slow source degrades to
// the last snapshot cached in redis (when a cache is configured) or to
// zero, gets logged, and the recalculation carries on. Cache is
// optional; a nil client disables it.
type SignalReader struct {
	Orders    OrderSignals
	Views     ViewSignals
	Carts     CartSignals
	Favorites FavoriteSignals
	Ratings   RatingSignals

	Cache   *redis.Client
	Window  time.Duration // rolling counter window, default 24h
	Timeout time.Duration // per-source read timeout, default 3s
	Log     zerolog.Logger
}

const snapshotCacheTTL = 24 * time.Hour

func cacheKey(productID string) string { return fmt.Sprintf("signals:%s", productID) }

// Snapshot reads all signal sources for one product.
func (r *SignalReader) Snapshot(ctx context.Context, productID, sellerID string) SignalSnapshot {
	window := r.Window
	if window <= 0 {
		window = 24 * time.Hour
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	since := time.Now().Add(-window)

	var cached SignalSnapshot
	cachedLoaded, cachedOK := false, false
	lastKnown := func() *SignalSnapshot {
		if !cachedLoaded {
			cachedLoaded = true
			if r.Cache != nil {
				if data, err := r.Cache.Get(ctx, cacheKey(productID)).Result(); err == nil {
					cachedOK = json.Unmarshal([]byte(data), &cached) == nil
				}
			}
		}
		if cachedOK {
			return &cached
		}
		return nil
	}

	degraded := false // any failed read; blocks the cache refresh
	zeroed := false   // a failed read with no cached value to fall back on
	readInt := func(signal string, fn func(context.Context) (int, error), fromCache func(*SignalSnapshot) int) int {
		cctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		n, err := fn(cctx)
		if err == nil {
			return n
		}
		degraded = true
		r.Log.Warn().Err(err).Str("product_id", productID).Str("signal", signal).
			Msg("signal read failed, falling back to last known value")
		if prev := lastKnown(); prev != nil {
			return fromCache(prev)
		}
		zeroed = true
		return 0
	}

	var snap SignalSnapshot
	snap.Sales24h = readInt("sales_24h", func(c context.Context) (int, error) {
		return r.Orders.SalesCount(c, productID, since)
	}, func(p *SignalSnapshot) int { return p.Sales24h })
	snap.LifetimeOrderCount = readInt("orders", func(c context.Context) (int, error) {
		return r.Orders.LifetimeOrderCount(c, productID)
	}, func(p *SignalSnapshot) int { return p.LifetimeOrderCount })
	snap.Views24h = readInt("views_24h", func(c context.Context) (int, error) {
		return r.Views.ViewCount(c, productID, since)
	}, func(p *SignalSnapshot) int { return p.Views24h })
	snap.LifetimeViewCount = readInt("views", func(c context.Context) (int, error) {
		return r.Views.LifetimeViewCount(c, productID)
	}, func(p *SignalSnapshot) int { return p.LifetimeViewCount })
	snap.CartCount24h = readInt("carts_24h", func(c context.Context) (int, error) {
		return r.Carts.CartCount(c, productID, since)
	}, func(p *SignalSnapshot) int { return p.CartCount24h })
	snap.FavoritesCount = readInt("favorites", func(c context.Context) (int, error) {
		return r.Favorites.FavoriteCount(c, productID)
	}, func(p *SignalSnapshot) int { return p.FavoritesCount })
	snap.LifetimeFavoriteCount = snap.FavoritesCount

	{
		cctx, cancel := context.WithTimeout(ctx, timeout)
		rating, err := r.Ratings.StoreRating(cctx, sellerID, productID)
		cancel()
		if err != nil {
			degraded = true
			r.Log.Warn().Err(err).Str("product_id", productID).Str("signal", "store_rating").
				Msg("signal read failed, falling back to last known value")
			if prev := lastKnown(); prev != nil {
				rating = prev.StoreRating
			} else {
				zeroed = true
			}
		}
		snap.StoreRating = round2(rating)
	}

	snap.ConversionRate = conversionRate(snap.LifetimeOrderCount, snap.LifetimeViewCount)
	snap.Degraded = zeroed

	// Only a clean read refreshes the cache; a degraded one would
	// overwrite good values with the zeros it just substituted.
	if !degraded && r.Cache != nil {
		if data, err := json.Marshal(snap); err == nil {
			if err := r.Cache.Set(ctx, cacheKey(productID), data, snapshotCacheTTL).Err(); err != nil {
				r.Log.Debug().Err(err).Str("product_id", productID).Msg("snapshot cache write failed")
			}
		}
	}

	return snap
}

func conversionRate(orders, views int) float64 {
	if views <= 0 {
		return 0
	}
	return round2(math.Min(100, float64(orders)/float64(views)*100))
}
