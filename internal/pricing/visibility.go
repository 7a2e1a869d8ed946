package pricing

import "math"

// VisibilityInputs carries the non-snapshot state the visibility score
// depends on.
type VisibilityInputs struct {
	DiscountPercent float64
	AgeDays         float64
	Featured        bool
}

// VisibilityScore blends lifetime engagement, discount state, newness
// and the 24h behavioral boosts into the non-negative score persisted
// for search ordering. The behavioral boosts here use visibility caps,
// not the markup caps: a product can be highly visible without its
// price moving.
func VisibilityScore(cfg Config, s SignalSnapshot, in VisibilityInputs) float64 {
	base := baseVisibility(cfg, s, in)

	trending := countBoost(cfg.VisTrendingTiers, s.Sales24h)

	demand := 0.0
	if s.Sales24h > 0 && s.Views24h > 0 {
		demand = math.Min(cfg.VisDemandCap, float64(s.Sales24h)/float64(s.Views24h)*100)
	}

	interaction := math.Min(cfg.VisInteractionCap,
		float64(s.Views24h)*cfg.ViewWeight24h+float64(s.CartCount24h)*cfg.CartWeight24h)

	featured := 0.0
	if in.Featured {
		featured = cfg.FeaturedVisibility
	}

	score := math.Round(base + trending + demand + interaction + featured)
	if score < 0 {
		return 0
	}
	return score
}

func baseVisibility(cfg Config, s SignalSnapshot, in VisibilityInputs) float64 {
	discount := math.Min(cfg.DiscountCap, in.DiscountPercent*cfg.DiscountWeight)

	newness := 0.0
	if in.AgeDays <= cfg.NewnessDays {
		newness = math.Max(0, cfg.NewnessMax*(1-in.AgeDays/cfg.NewnessDays))
	}

	return math.Round(float64(s.LifetimeOrderCount)*cfg.OrderWeight +
		float64(s.LifetimeViewCount)*cfg.ViewWeight +
		float64(s.LifetimeFavoriteCount)*cfg.FavoriteWeight +
		s.ConversionRate*cfg.ConversionWeight +
		s.StoreRating*cfg.RatingWeight +
		discount + newness)
}
