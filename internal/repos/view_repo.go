package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ViewRepo struct{ db *sqlx.DB }

func NewViewRepo(db *sqlx.DB) *ViewRepo { return &ViewRepo{db: db} }

// Record appends one timestamped view row. Views are append-only; the
// 24h counter is derived at recalculation time, not kept live.
func (r *ViewRepo) Record(productID, sessionID string) error {
	_, err := r.db.Exec(`
	  INSERT INTO product_views(id, product_id, session_id, viewed_at)
	  VALUES(?, ?, ?, ?)
	`, uuid.NewString(), productID, sessionID, time.Now().UTC().Format(time.RFC3339))
	return err
}

func (r *ViewRepo) ViewCount(ctx context.Context, productID string, since time.Time) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `
	  SELECT COUNT(*) FROM product_views
	  WHERE product_id = ? AND datetime(viewed_at) >= datetime(?)
	`, productID, since.UTC().Format(time.RFC3339))
	return n, err
}

func (r *ViewRepo) LifetimeViewCount(ctx context.Context, productID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM product_views WHERE product_id = ?`, productID)
	return n, err
}
