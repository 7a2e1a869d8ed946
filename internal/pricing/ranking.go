package pricing

import (
	"fmt"
	"math"
	"strings"
	"time"

	"soukly/internal/domain"
)

// RankOptions carries the caller-side inputs of the query-time rank.
type RankOptions struct {
	PreferredCategories []string
	Now                 time.Time
}

// RankingScore orders listing results. It reads only persisted fields
// and the options, never the store, so the same number comes out of an
// in-process sort and of the SQL expression from RankingSQL.
//
// Admin intent dominates: priority_score*PriorityWeight ranges up to
// 10000, which exceeds the featured boost of 1000. A priority above 10
// therefore outranks a merely featured product. That asymmetry is
// deliberate and covered by tests; do not "fix" it here without
// changing RankingSQL in lockstep.
func RankingScore(cfg Config, p *domain.Product, opts RankOptions) float64 {
	score := 0.0
	if p.Featured {
		score += cfg.FeaturedRankBoost
	}
	score += p.PriorityScore * cfg.PriorityWeight
	score += freshnessBoost(cfg, p.AgeDays(opts.Now))
	score += stockBoost(cfg, p.Stock)
	for _, c := range opts.PreferredCategories {
		if c == p.CategoryID {
			score += cfg.PersonalBoost
			break
		}
	}
	return score
}

// freshnessBoost decays linearly from FreshnessMax to 0 over
// FreshnessDays, rounded to a whole point.
func freshnessBoost(cfg Config, ageDays float64) float64 {
	fresh := cfg.FreshnessMax * (1 - ageDays/cfg.FreshnessDays)
	if fresh < 0 {
		return 0
	}
	return math.Round(fresh)
}

// stockBoost is 0 under the threshold, then linear in stock and
// saturating at StockBoostMax once stock reaches twice the threshold.
func stockBoost(cfg Config, stock int) float64 {
	if stock < cfg.StockThreshold {
		return 0
	}
	b := cfg.StockBoostMax * float64(stock) / float64(2*cfg.StockThreshold)
	return math.Min(cfg.StockBoostMax, b)
}

// RankingSQL renders RankingScore as a sqlite expression over the
// products table, with one bind argument per preferred category. Both
// paths must stay formula-identical; ranking_test.go asserts that.
func RankingSQL(cfg Config, preferredCategories []string) (string, []any) {
	var b strings.Builder
	args := make([]any, 0, len(preferredCategories))

	fmt.Fprintf(&b, "(CASE WHEN featured THEN %g ELSE 0 END)", cfg.FeaturedRankBoost)
	fmt.Fprintf(&b, " + priority_score * %g", cfg.PriorityWeight)
	fmt.Fprintf(&b, " + MAX(0, ROUND(%g * (1.0 - (julianday('now') - julianday(created_at)) / %g)))",
		cfg.FreshnessMax, cfg.FreshnessDays)
	// stock is an INTEGER column; the ".0" divisors keep sqlite in float
	// arithmetic so the linear segment matches the Go computation.
	fmt.Fprintf(&b,
		" + (CASE WHEN stock < %d THEN 0 WHEN %g * stock / %d.0 > %g THEN %g ELSE %g * stock / %d.0 END)",
		cfg.StockThreshold,
		cfg.StockBoostMax, 2*cfg.StockThreshold, cfg.StockBoostMax, cfg.StockBoostMax,
		cfg.StockBoostMax, 2*cfg.StockThreshold)

	if len(preferredCategories) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(preferredCategories)), ",")
		fmt.Fprintf(&b, " + (CASE WHEN category_id IN (%s) THEN %g ELSE 0 END)",
			placeholders, cfg.PersonalBoost)
		for _, c := range preferredCategories {
			args = append(args, c)
		}
	}

	return b.String(), args
}
