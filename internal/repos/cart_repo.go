package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

type CartItemRow struct {
	ProductID  string  `db:"product_id"`
	VariantID  *string `db:"variant_id"`
	Title      string  `db:"title"`
	Qty        int     `db:"qty"`
	PriceAtAdd float64 `db:"price_at_add"`
	Subtotal   float64 `db:"subtotal"`
}

func (r *CartRepo) EnsureCart(sessionID string) (string, error) {
	var cartID string
	if err := r.db.Get(&cartID, `SELECT id FROM carts WHERE session_id = ?`, sessionID); err == nil {
		return cartID, nil
	}
	_, err := r.db.Exec(`INSERT INTO carts(id,session_id,updated_at) VALUES(?,?,?)`,
		sessionID, sessionID, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", err
	}
	return sessionID, nil
}

// UpsertItem adds to a cart line keyed by (cart, product, variant).
// Re-adding the same line sums the quantity and refreshes the captured
// price so a repriced product is charged at its current final price.
func (r *CartRepo) UpsertItem(cartID, productID string, variantID *string, qty int, price float64) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.db.Exec(`
	  INSERT INTO cart_items(cart_id, product_id, variant_id, qty, price_at_add, created_at)
	  VALUES(?, ?, ?, ?, ?, ?)
	  ON CONFLICT(cart_id, product_id, variant_key) DO UPDATE
	  SET qty = cart_items.qty + excluded.qty,
	      price_at_add = excluded.price_at_add,
	      updated_at = ?
	`, cartID, productID, variantID, qty, price, now, now)
	return err
}

func (r *CartRepo) View(cartID string) ([]CartItemRow, float64, error) {
	rows := []CartItemRow{}
	if err := r.db.Select(&rows, `
	  SELECT ci.product_id, ci.variant_id, p.title, ci.qty, ci.price_at_add,
	         (ci.qty*ci.price_at_add) AS subtotal
	  FROM cart_items ci JOIN products p ON p.id=ci.product_id
	  WHERE ci.cart_id = ?
	`, cartID); err != nil {
		return nil, 0, err
	}
	total := 0.0
	for _, it := range rows {
		total += it.Subtotal
	}
	return rows, total, nil
}

type CartItem struct {
	ProductID string  `db:"product_id"`
	VariantID *string `db:"variant_id"`
	Qty       int     `db:"qty"`
	Price     float64 `db:"price"`
	Title     string  `db:"title"`
}

func (r *CartRepo) Items(cartID string) ([]CartItem, error) {
	var out []CartItem
	err := r.db.Select(&out, `
	  SELECT ci.product_id, ci.variant_id, ci.qty, ci.price_at_add AS price, p.title
	  FROM cart_items ci JOIN products p ON p.id=ci.product_id
	  WHERE ci.cart_id = ?
	`, cartID)
	return out, err
}

func (r *CartRepo) Clear(cartID string) error {
	_, err := r.db.Exec(`DELETE FROM cart_items WHERE cart_id = ?`, cartID)
	return err
}

// CartCount counts distinct carts a product entered inside the
// window. Interest is measured in carts, not units.
func (r *CartRepo) CartCount(ctx context.Context, productID string, since time.Time) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `
	  SELECT COUNT(DISTINCT cart_id) FROM cart_items
	  WHERE product_id = ? AND datetime(created_at) >= datetime(?)
	`, productID, since.UTC().Format(time.RFC3339))
	return n, err
}
