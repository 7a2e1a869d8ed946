package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

// Statuses that count as a sale for the behavioral signals. PLACED and
// CANCELLED orders do not move prices.
var saleStatuses = []string{"CONFIRMED", "SHIPPED", "DELIVERED"}

type OrderSummary struct {
	ID            string  `db:"id"`
	SessionID     string  `db:"session_id"`
	CustomerName  string  `db:"customer_name"`
	CustomerEmail string  `db:"customer_email"`
	Total         float64 `db:"total"`
	Status        string  `db:"status"`
	CreatedAt     string  `db:"created_at"`
}

type OrderItemRow struct {
	ProductID string  `db:"product_id"`
	VariantID *string `db:"variant_id"`
	Title     string  `db:"title"`
	Qty       int     `db:"qty"`
	Price     float64 `db:"price"`
	Subtotal  float64 `db:"subtotal"`
}

// Create inserts a new order header.
func (r *OrderRepo) Create(orderID, sessionID, name, email string, total float64) error {
	_, err := r.db.Exec(`
	  INSERT INTO orders(id, session_id, customer_name, customer_email, total, status, created_at)
	  VALUES (?, ?, ?, ?, ?, 'PLACED', ?)
	`, orderID, sessionID, name, email, total, time.Now().UTC().Format(time.RFC3339))
	return err
}

// InsertItem inserts a single line item.
func (r *OrderRepo) InsertItem(orderID, productID string, variantID *string, qty int, price float64) error {
	_, err := r.db.Exec(`
	  INSERT INTO order_items(order_id, product_id, variant_id, qty, price)
	  VALUES(?, ?, ?, ?, ?)
	`, orderID, productID, variantID, qty, price)
	return err
}

func (r *OrderRepo) Get(orderID string) (OrderSummary, []OrderItemRow, error) {
	var o OrderSummary
	if err := r.db.Get(&o, `
	  SELECT id, session_id, customer_name, customer_email, total, status, created_at
	  FROM orders WHERE id = ?
	`, orderID); err != nil {
		return OrderSummary{}, nil, err
	}

	var items []OrderItemRow
	if err := r.db.Select(&items, `
	  SELECT oi.product_id, oi.variant_id, p.title, oi.qty, oi.price, (oi.qty * oi.price) AS subtotal
	  FROM order_items oi
	  JOIN products p ON p.id = oi.product_id
	  WHERE oi.order_id = ?
	  ORDER BY p.title
	`, orderID); err != nil {
		return OrderSummary{}, nil, err
	}
	return o, items, nil
}

func (r *OrderRepo) ListLatest(limit int) ([]OrderSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []OrderSummary
	err := r.db.Select(&out, `
	  SELECT id, session_id, customer_name, customer_email, total, status, created_at
	  FROM orders
	  ORDER BY datetime(created_at) DESC
	  LIMIT ?
	`, limit)
	return out, err
}

func (r *OrderRepo) UpdateStatus(id, status string) error {
	_, err := r.db.Exec(`UPDATE orders SET status = ? WHERE id = ?`, status, id)
	return err
}

// ProductIDs returns the distinct products on an order, for on-demand
// repricing after an order event.
func (r *OrderRepo) ProductIDs(ctx context.Context, orderID string) ([]string, error) {
	var ids []string
	err := r.db.SelectContext(ctx, &ids,
		`SELECT DISTINCT product_id FROM order_items WHERE order_id = ?`, orderID)
	return ids, err
}

// ---------- Behavioral signals ----------

// SalesCount sums units sold for a product since the window start,
// over orders in a sale status.
func (r *OrderRepo) SalesCount(ctx context.Context, productID string, since time.Time) (int, error) {
	query, args, err := sqlx.In(`
	  SELECT COALESCE(SUM(oi.qty), 0)
	  FROM order_items oi
	  JOIN orders o ON o.id = oi.order_id
	  WHERE oi.product_id = ? AND o.status IN (?) AND datetime(o.created_at) >= datetime(?)
	`, productID, saleStatuses, since.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	var n int
	err = r.db.GetContext(ctx, &n, r.db.Rebind(query), args...)
	return n, err
}

// LifetimeOrderCount counts sale-status orders containing the product.
func (r *OrderRepo) LifetimeOrderCount(ctx context.Context, productID string) (int, error) {
	query, args, err := sqlx.In(`
	  SELECT COUNT(DISTINCT o.id)
	  FROM order_items oi
	  JOIN orders o ON o.id = oi.order_id
	  WHERE oi.product_id = ? AND o.status IN (?)
	`, productID, saleStatuses)
	if err != nil {
		return 0, err
	}
	var n int
	err = r.db.GetContext(ctx, &n, r.db.Rebind(query), args...)
	return n, err
}
