package pricing

import "math"

// MarkupBreakdown is the per-signal decomposition of a dynamic markup,
// kept so callers can log or expose why a price moved.
type MarkupBreakdown struct {
	Trending    float64 `json:"trending"`
	Demand      float64 `json:"demand"`
	Interaction float64 `json:"interaction"`
	StockAdjust float64 `json:"stock_adjust"`
	Total       float64 `json:"total"`
}

// DynamicMarkup maps a behavioral snapshot plus current stock to a
// markup percent in [0, MaxDynamicMarkup]. Each sub-boost is capped on
// its own before the sum is clamped, so one runaway counter can never
// dominate the result.
func DynamicMarkup(cfg Config, s SignalSnapshot, stock int) MarkupBreakdown {
	b := MarkupBreakdown{
		Trending:    trendingBoost(cfg, s.Sales24h),
		Demand:      demandBoost(cfg, s),
		Interaction: interactionBoost(cfg, s),
		StockAdjust: stockAdjust(cfg, stock),
	}
	total := b.Trending + b.Demand + b.Interaction + b.StockAdjust
	b.Total = round2(clamp(total, 0, cfg.MaxDynamicMarkup))
	return b
}

func trendingBoost(cfg Config, sales24h int) float64 {
	return math.Min(cfg.TrendingCap, countBoost(cfg.TrendingTiers, sales24h))
}

func demandBoost(cfg Config, s SignalSnapshot) float64 {
	sum := rateBoost(cfg.ConversionTiers, s.ConversionRate) +
		countBoost(cfg.FavoriteTiers, s.FavoritesCount)
	return math.Min(cfg.DemandCap, sum)
}

func interactionBoost(cfg Config, s SignalSnapshot) float64 {
	sum := countBoost(cfg.ViewTiers, s.Views24h) +
		countBoost(cfg.CartTiers, s.CartCount24h)
	return math.Min(cfg.InteractionCap, sum)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
