package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ReviewRepo struct{ db *sqlx.DB }

func NewReviewRepo(db *sqlx.DB) *ReviewRepo { return &ReviewRepo{db: db} }

func (r *ReviewRepo) Add(productID, sellerID string, rating float64, comment string) error {
	_, err := r.db.Exec(`
	  INSERT INTO reviews(id, product_id, seller_id, rating, comment, created_at)
	  VALUES(?, ?, ?, ?, ?, ?)
	`, uuid.NewString(), productID, sellerID, rating, comment,
		time.Now().UTC().Format(time.RFC3339))
	return err
}

// StoreRating prefers the seller's aggregate review rating and falls
// back to the product's own average when the seller has no reviews.
// No reviews at all yields 0.
func (r *ReviewRepo) StoreRating(ctx context.Context, sellerID, productID string) (float64, error) {
	var rating *float64
	err := r.db.GetContext(ctx, &rating,
		`SELECT AVG(rating) FROM reviews WHERE seller_id = ?`, sellerID)
	if err != nil {
		return 0, err
	}
	if rating != nil {
		return *rating, nil
	}
	err = r.db.GetContext(ctx, &rating,
		`SELECT AVG(rating) FROM reviews WHERE product_id = ?`, productID)
	if err != nil || rating == nil {
		return 0, err
	}
	return *rating, nil
}
