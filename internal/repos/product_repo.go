package repos

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"soukly/internal/domain"
	"soukly/internal/pricing"
)

var ErrInsufficientStock = errors.New("insufficient stock")

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `
  id, category_id, seller_id, title, description, COALESCE(images_json,'') AS images_json,
  merchant_price, price, discount_price, base_markup_percent, dynamic_markup_percent,
  final_price, stock, featured, priority_score, visibility_score, conversion_rate,
  store_rating, views_24h, cart_count_24h, sales_24h, favorites_count, active,
  deleted_at, created_at, COALESCE(updated_at,'') AS updated_at, score_calculated_at`

// Get loads a product with its variants in position order.
func (r *ProductRepo) Get(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, `SELECT`+productCols+` FROM products WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if err := r.loadVariants(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepo) loadVariants(ctx context.Context, p *domain.Product) error {
	err := r.db.SelectContext(ctx, &p.Variants, `
	  SELECT id, product_id, position, attrs_json, merchant_price, base_markup_percent,
	         dynamic_markup_percent, final_price, stock
	  FROM variants WHERE product_id = ? ORDER BY position
	`, p.ID)
	if err != nil {
		return err
	}
	for i := range p.Variants {
		v := &p.Variants[i]
		if v.AttrsJSON != "" {
			// A malformed attrs blob should not block repricing.
			_ = json.Unmarshal([]byte(v.AttrsJSON), &v.Attrs)
		}
	}
	return nil
}

// EligibleIDs lists products the recalculation cycle may touch:
// active and not soft-deleted.
func (r *ProductRepo) EligibleIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.SelectContext(ctx, &ids, `
	  SELECT id FROM products
	  WHERE active = 1 AND deleted_at IS NULL
	  ORDER BY id
	`)
	return ids, err
}

// SaveDerived persists everything one recalculation produces for one
// product in a single transaction: refreshed tracking counters, markup,
// prices (product + variants), ranking mirrors and the score timestamp.
func (r *ProductRepo) SaveDerived(ctx context.Context, p *domain.Product) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.ExecContext(ctx, `
	  UPDATE products SET
	    dynamic_markup_percent = ?,
	    final_price = ?,
	    stock = ?,
	    visibility_score = ?,
	    conversion_rate = ?,
	    store_rating = ?,
	    views_24h = ?,
	    cart_count_24h = ?,
	    sales_24h = ?,
	    favorites_count = ?,
	    score_calculated_at = ?,
	    updated_at = ?
	  WHERE id = ?
	`, p.DynamicMarkupPercent, p.FinalPrice, p.Stock, p.VisibilityScore,
		p.ConversionRate, p.StoreRating, p.Views24h, p.CartCount24h, p.Sales24h,
		p.FavoritesCount, now, now, p.ID)
	if err != nil {
		return err
	}

	for i := range p.Variants {
		v := &p.Variants[i]
		_, err = tx.ExecContext(ctx, `
		  UPDATE variants SET dynamic_markup_percent = ?, final_price = ? WHERE id = ?
		`, v.DynamicMarkupPercent, v.FinalPrice, v.ID)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	p.ScoreCalculatedAt = &now
	return nil
}

// RankedProduct is a listing row with its query-time ranking score.
type RankedProduct struct {
	domain.Product
	RankScore float64 `db:"rank_score"`
}

// ListRanked orders active products by the query-time ranking formula,
// evaluated inside sqlite via pricing.RankingSQL. Ties break on newest
// first.
func (r *ProductRepo) ListRanked(ctx context.Context, cfg pricing.Config, preferredCategories []string, categoryID string, limit, offset int) ([]RankedProduct, error) {
	expr, args := pricing.RankingSQL(cfg, preferredCategories)

	query := `SELECT` + productCols + `, (` + expr + `) AS rank_score
	  FROM products
	  WHERE active = 1 AND deleted_at IS NULL`
	if categoryID != "" {
		query += ` AND category_id = ?`
		args = append(args, categoryID)
	}
	query += ` ORDER BY rank_score DESC, datetime(created_at) DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	var out []RankedProduct
	err := r.db.SelectContext(ctx, &out, query, args...)
	return out, err
}

// Search filters active products by keyword, ordered by the persisted
// visibility score rather than the query-time rank: keyword results
// follow demand, not admin pinning.
func (r *ProductRepo) Search(ctx context.Context, q, categoryID string, limit, offset int) ([]domain.Product, error) {
	where := `active = 1 AND deleted_at IS NULL`
	args := []any{}
	if q != "" {
		where += ` AND (LOWER(title) LIKE ? OR LOWER(description) LIKE ?)`
		args = append(args, "%"+q+"%", "%"+q+"%")
	}
	if categoryID != "" {
		where += ` AND category_id = ?`
		args = append(args, categoryID)
	}
	args = append(args, limit, offset)

	var out []domain.Product
	err := r.db.SelectContext(ctx, &out, `SELECT`+productCols+`
	  FROM products WHERE `+where+`
	  ORDER BY visibility_score DESC, datetime(created_at) DESC
	  LIMIT ? OFFSET ?`, args...)
	return out, err
}

// SetRanking applies the admin overrides. These fields are read-only to
// the engine.
func (r *ProductRepo) SetRanking(ctx context.Context, id string, featured bool, priorityScore float64) error {
	_, err := r.db.ExecContext(ctx, `
	  UPDATE products SET featured = ?, priority_score = ?, updated_at = ?
	  WHERE id = ?
	`, featured, priorityScore, time.Now().UTC().Format(time.RFC3339), id)
	return err
}

// DecrementStock atomically subtracts sold units when an order is
// placed against the product itself (no variant).
func (r *ProductRepo) DecrementStock(productID string, by int) error {
	res, err := r.db.Exec(`
	  UPDATE products SET stock = stock - ? WHERE id = ? AND stock >= ?
	`, by, productID, by)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// DecrementVariantStock subtracts sold units from a variant and keeps
// the parent's stock as the variant sum.
func (r *ProductRepo) DecrementVariantStock(productID, variantID string, by int) error {
	res, err := r.db.Exec(`
	  UPDATE variants SET stock = stock - ? WHERE id = ? AND stock >= ?
	`, by, variantID, by)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInsufficientStock
	}
	_, err = r.db.Exec(`
	  UPDATE products SET stock = (SELECT COALESCE(SUM(stock),0) FROM variants WHERE product_id = ?)
	  WHERE id = ?
	`, productID, productID)
	return err
}
