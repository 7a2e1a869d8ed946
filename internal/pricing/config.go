package pricing

// CountTier maps a counter threshold to a boost: the highest tier whose
// Min the counter reaches wins. Tiers must be sorted ascending by Min.
type CountTier struct {
	Min   int
	Boost float64
}

// RateTier is CountTier over a float input (conversion rate percent).
type RateTier struct {
	Min   float64
	Boost float64
}

// StockTier maps a stock ceiling to a price adjustment: the first tier
// whose Max covers the stock wins. Tiers must be sorted ascending by Max.
type StockTier struct {
	Max    int
	Adjust float64
}

// Config centralizes every cap, tier and weight used by the calculators
// so a tuning change is one edit and tests can run alternate tunings.
type Config struct {
	// Dynamic markup (percent applied on top of the base markup).
	MaxDynamicMarkup  float64
	DefaultBaseMarkup float64

	TrendingCap   float64
	TrendingTiers []CountTier // sales24h

	DemandCap       float64
	ConversionTiers []RateTier  // lifetime conversion rate %
	FavoriteTiers   []CountTier // lifetime favorites

	InteractionCap float64
	ViewTiers      []CountTier // views24h
	CartTiers      []CountTier // cartCount24h

	StockTiers []StockTier // ascending Max; stock above the last tier gets StockFloor
	StockFloor float64

	// Visibility score.
	VisTrendingTiers   []CountTier // sales24h, visibility caps
	VisDemandCap       float64     // min(cap, sales24h/views24h*100)
	VisInteractionCap  float64     // min(cap, views24h*ViewWeight24h + cart*CartWeight24h)
	ViewWeight24h      float64
	CartWeight24h      float64
	FeaturedVisibility float64

	OrderWeight      float64
	ViewWeight       float64
	FavoriteWeight   float64
	ConversionWeight float64
	RatingWeight     float64
	DiscountCap      float64
	DiscountWeight   float64
	NewnessMax       float64
	NewnessDays      float64

	// Query-time ranking.
	FeaturedRankBoost float64
	PriorityWeight    float64
	FreshnessMax      float64
	FreshnessDays     float64
	StockBoostMax     float64
	StockThreshold    int
	PersonalBoost     float64
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		MaxDynamicMarkup:  50,
		DefaultBaseMarkup: 10,

		TrendingCap: 15,
		TrendingTiers: []CountTier{
			{Min: 1, Boost: 2},
			{Min: 5, Boost: 5},
			{Min: 10, Boost: 8},
			{Min: 20, Boost: 12},
			{Min: 50, Boost: 15},
		},

		DemandCap: 12,
		ConversionTiers: []RateTier{
			{Min: 1, Boost: 1},
			{Min: 2, Boost: 3},
			{Min: 5, Boost: 5},
			{Min: 10, Boost: 7},
		},
		FavoriteTiers: []CountTier{
			{Min: 10, Boost: 1},
			{Min: 20, Boost: 2},
			{Min: 50, Boost: 3},
			{Min: 100, Boost: 5},
		},

		InteractionCap: 10,
		ViewTiers: []CountTier{
			{Min: 50, Boost: 1},
			{Min: 100, Boost: 2},
			{Min: 200, Boost: 3},
			{Min: 500, Boost: 4},
			{Min: 1000, Boost: 6},
		},
		CartTiers: []CountTier{
			{Min: 5, Boost: 1},
			{Min: 10, Boost: 2},
			{Min: 20, Boost: 3},
			{Min: 50, Boost: 4},
		},

		StockTiers: []StockTier{
			{Max: 0, Adjust: 8},
			{Max: 5, Adjust: 6},
			{Max: 10, Adjust: 4},
			{Max: 20, Adjust: 2},
			{Max: 50, Adjust: 0},
			{Max: 100, Adjust: -2},
			{Max: 200, Adjust: -4},
		},
		StockFloor: -5,

		VisTrendingTiers: []CountTier{
			{Min: 5, Boost: 10},
			{Min: 10, Boost: 20},
			{Min: 20, Boost: 30},
			{Min: 50, Boost: 50},
		},
		VisDemandCap:       30,
		VisInteractionCap:  20,
		ViewWeight24h:      0.1,
		CartWeight24h:      2,
		FeaturedVisibility: 100,

		OrderWeight:      5,
		ViewWeight:       1,
		FavoriteWeight:   3,
		ConversionWeight: 10,
		RatingWeight:     4,
		DiscountCap:      20,
		DiscountWeight:   2,
		NewnessMax:       15,
		NewnessDays:      30,

		FeaturedRankBoost: 1000,
		PriorityWeight:    100,
		FreshnessMax:      50,
		FreshnessDays:     30,
		StockBoostMax:     30,
		StockThreshold:    10,
		PersonalBoost:     20,
	}
}

func countBoost(tiers []CountTier, n int) float64 {
	boost := 0.0
	for _, t := range tiers {
		if n >= t.Min {
			boost = t.Boost
		}
	}
	return boost
}

func rateBoost(tiers []RateTier, rate float64) float64 {
	boost := 0.0
	for _, t := range tiers {
		if rate >= t.Min {
			boost = t.Boost
		}
	}
	return boost
}

func stockAdjust(cfg Config, stock int) float64 {
	for _, t := range cfg.StockTiers {
		if stock <= t.Max {
			return t.Adjust
		}
	}
	return cfg.StockFloor
}
