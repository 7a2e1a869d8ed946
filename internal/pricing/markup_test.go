package pricing_test

import (
	"testing"

	"soukly/internal/pricing"
)

func TestDynamicMarkup_Tiers(t *testing.T) {
	cfg := pricing.DefaultConfig()

	cases := []struct {
		name  string
		snap  pricing.SignalSnapshot
		stock int
		want  float64
	}{
		{"quiet product, healthy stock", pricing.SignalSnapshot{}, 30, 0},
		{"one sale", pricing.SignalSnapshot{Sales24h: 1}, 30, 2},
		{"five sales", pricing.SignalSnapshot{Sales24h: 5}, 30, 5},
		{"fifty sales hits trending cap", pricing.SignalSnapshot{Sales24h: 500}, 30, 15},
		{"views only", pricing.SignalSnapshot{Views24h: 100}, 30, 2},
		{"carts only", pricing.SignalSnapshot{CartCount24h: 10}, 30, 2},
		{"conversion only", pricing.SignalSnapshot{ConversionRate: 5}, 30, 5},
		{"favorites only", pricing.SignalSnapshot{FavoritesCount: 20}, 30, 2},
		{
			"hot product, empty shelf",
			pricing.SignalSnapshot{
				Sales24h:       60,
				Views24h:       1200,
				CartCount24h:   60,
				ConversionRate: 12,
				FavoritesCount: 150,
			},
			0,
			45, // 15 trending + 12 demand + 10 interaction + 8 out-of-stock
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := pricing.DynamicMarkup(cfg, tc.snap, tc.stock)
			if got.Total != tc.want {
				t.Fatalf("want %.2f, got %.2f (%+v)", tc.want, got.Total, got)
			}
		})
	}
}

func TestDynamicMarkup_StockAdjustment(t *testing.T) {
	cfg := pricing.DefaultConfig()

	cases := []struct {
		stock int
		want  float64
	}{
		{0, 8},
		{3, 6},
		{5, 6},
		{6, 4},
		{10, 4},
		{11, 2},
		{20, 2},
		{21, 0},
		{50, 0},
		{51, -2},
		{100, -2},
		{101, -4},
		{200, -4},
		{201, -5},
		{5000, -5},
	}
	for _, tc := range cases {
		got := pricing.DynamicMarkup(cfg, pricing.SignalSnapshot{}, tc.stock)
		if got.StockAdjust != tc.want {
			t.Errorf("stock %d: want adjust %.0f, got %.0f", tc.stock, tc.want, got.StockAdjust)
		}
	}
}

// An oversupplied quiet product would compute a negative markup; the
// floor keeps the total at zero so the engine never discounts.
func TestDynamicMarkup_FloorsAtZero(t *testing.T) {
	cfg := pricing.DefaultConfig()
	got := pricing.DynamicMarkup(cfg, pricing.SignalSnapshot{}, 5000)
	if got.StockAdjust != -5 {
		t.Fatalf("want stock adjust -5, got %.0f", got.StockAdjust)
	}
	if got.Total != 0 {
		t.Fatalf("total must floor at 0, got %.2f", got.Total)
	}
}

func TestDynamicMarkup_ClampsAtCeiling(t *testing.T) {
	// Alternate tuning where the sub-boosts can exceed the global cap.
	cfg := pricing.DefaultConfig()
	cfg.TrendingCap = 60
	cfg.TrendingTiers = []pricing.CountTier{{Min: 1, Boost: 60}}

	got := pricing.DynamicMarkup(cfg, pricing.SignalSnapshot{Sales24h: 1}, 0)
	if got.Total != cfg.MaxDynamicMarkup {
		t.Fatalf("want clamp at %.0f, got %.2f", cfg.MaxDynamicMarkup, got.Total)
	}
}

func TestDynamicMarkup_PerSignalCaps(t *testing.T) {
	cfg := pricing.DefaultConfig()
	cfg.DemandCap = 6
	cfg.InteractionCap = 4

	snap := pricing.SignalSnapshot{
		ConversionRate: 50,
		FavoritesCount: 1000,
		Views24h:       10000,
		CartCount24h:   1000,
	}
	got := pricing.DynamicMarkup(cfg, snap, 30)
	if got.Demand != 6 {
		t.Fatalf("demand should cap at 6, got %.2f", got.Demand)
	}
	if got.Interaction != 4 {
		t.Fatalf("interaction should cap at 4, got %.2f", got.Interaction)
	}
}

func TestDynamicMarkup_TrendingMonotone(t *testing.T) {
	cfg := pricing.DefaultConfig()
	prev := -1.0
	for sales := 0; sales <= 120; sales++ {
		got := pricing.DynamicMarkup(cfg, pricing.SignalSnapshot{Sales24h: sales}, 30)
		if got.Trending < prev {
			t.Fatalf("trending boost decreased at %d sales: %.2f < %.2f", sales, got.Trending, prev)
		}
		prev = got.Trending
	}
}
