package repos_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"soukly/internal/repos"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	// In-memory sqlite: every pool connection is its own database.
	db.SetMaxOpenConns(1)
	return db
}

func ts(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func TestOrderRepo_SalesCountWindowAndStatuses(t *testing.T) {
	db := memdb(t)
	repo := repos.NewOrderRepo(db)
	ctx := context.Background()
	now := time.Now().UTC()

	insert := func(id, status string, created time.Time, qty int) {
		db.MustExec(`INSERT INTO orders(id, session_id, total, status, created_at)
		  VALUES (?, 'sess', 0, ?, ?)`, id, status, ts(created))
		db.MustExec(`INSERT INTO order_items(order_id, product_id, qty, price)
		  VALUES (?, 'phone-aster-5', ?, 264)`, id, qty)
	}
	insert("o-confirmed", "CONFIRMED", now.Add(-time.Hour), 2)
	insert("o-placed", "PLACED", now.Add(-time.Hour), 3)
	insert("o-cancelled", "CANCELLED", now.Add(-time.Hour), 1)
	insert("o-old", "DELIVERED", now.Add(-48*time.Hour), 4)

	since := now.Add(-24 * time.Hour)
	n, err := repo.SalesCount(ctx, "phone-aster-5", since)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 { // only the in-window CONFIRMED order counts units
		t.Fatalf("want 2 units, got %d", n)
	}

	lifetime, err := repo.LifetimeOrderCount(ctx, "phone-aster-5")
	if err != nil {
		t.Fatal(err)
	}
	if lifetime != 2 { // o-confirmed and o-old; PLACED/CANCELLED excluded
		t.Fatalf("want 2 sale-status orders, got %d", lifetime)
	}
}

func TestViewRepo_Windowing(t *testing.T) {
	db := memdb(t)
	repo := repos.NewViewRepo(db)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := repo.Record("blender-pro", "sess-1"); err != nil {
		t.Fatal(err)
	}
	if err := repo.Record("blender-pro", "sess-2"); err != nil {
		t.Fatal(err)
	}
	db.MustExec(`INSERT INTO product_views(id, product_id, session_id, viewed_at)
	  VALUES ('v-old', 'blender-pro', 'sess-3', ?)`, ts(now.Add(-72*time.Hour)))

	recent, err := repo.ViewCount(ctx, "blender-pro", now.Add(-24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if recent != 2 {
		t.Fatalf("want 2 recent views, got %d", recent)
	}
	lifetime, err := repo.LifetimeViewCount(ctx, "blender-pro")
	if err != nil {
		t.Fatal(err)
	}
	if lifetime != 3 {
		t.Fatalf("want 3 lifetime views, got %d", lifetime)
	}
}

// Cart interest counts distinct carts inside the window, not units.
func TestCartRepo_CartCount(t *testing.T) {
	db := memdb(t)
	repo := repos.NewCartRepo(db)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, sid := range []string{"sess-a", "sess-b"} {
		cartID, err := repo.EnsureCart(sid)
		if err != nil {
			t.Fatal(err)
		}
		if err := repo.UpsertItem(cartID, "blender-pro", nil, 5, 60.5); err != nil {
			t.Fatal(err)
		}
	}
	db.MustExec(`INSERT INTO carts(id, session_id) VALUES ('cart-old', 'sess-old')`)
	db.MustExec(`INSERT INTO cart_items(cart_id, product_id, qty, price_at_add, created_at)
	  VALUES ('cart-old', 'blender-pro', 1, 60.5, ?)`, ts(now.Add(-72*time.Hour)))

	n, err := repo.CartCount(ctx, "blender-pro", now.Add(-24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("want 2 distinct carts, got %d", n)
	}
}

func TestWishlistRepo_FavoriteCount(t *testing.T) {
	db := memdb(t)
	repo := repos.NewWishlistRepo(db)
	ctx := context.Background()

	for _, sid := range []string{"sess-a", "sess-b", "sess-c"} {
		wid, err := repo.Ensure(sid)
		if err != nil {
			t.Fatal(err)
		}
		if err := repo.Add(wid, "phone-aster-5"); err != nil {
			t.Fatal(err)
		}
	}
	// Re-adding is a no-op, not a double count.
	wid, _ := repo.Ensure("sess-a")
	if err := repo.Add(wid, "phone-aster-5"); err != nil {
		t.Fatal(err)
	}

	n, err := repo.FavoriteCount(ctx, "phone-aster-5")
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("want 3 favorites, got %d", n)
	}
}

func TestReviewRepo_StoreRatingFallback(t *testing.T) {
	db := memdb(t)
	repo := repos.NewReviewRepo(db)
	ctx := context.Background()

	// Seeded: s-kadero has two reviews (5 and 4).
	r, err := repo.StoreRating(ctx, "s-kadero", "phone-aster-5")
	if err != nil {
		t.Fatal(err)
	}
	if r != 4.5 {
		t.Fatalf("want seller average 4.5, got %v", r)
	}

	// Unknown seller falls back to the product's own average.
	r, err = repo.StoreRating(ctx, "s-ghost", "blender-pro")
	if err != nil {
		t.Fatal(err)
	}
	if r != 4 {
		t.Fatalf("want product average 4, got %v", r)
	}

	// No reviews anywhere yields zero, not an error.
	r, err = repo.StoreRating(ctx, "s-ghost", "lamp-brass")
	if err != nil {
		t.Fatal(err)
	}
	if r != 0 {
		t.Fatalf("want 0 for unreviewed, got %v", r)
	}
}

func TestProductRepo_EligibleIDs(t *testing.T) {
	db := memdb(t)
	repo := repos.NewProductRepo(db)
	ctx := context.Background()

	db.MustExec(`UPDATE products SET active = 0 WHERE id = 'blender-pro'`)
	db.MustExec(`UPDATE products SET deleted_at = ? WHERE id = 'lamp-brass'`, ts(time.Now()))

	ids, err := repo.EligibleIDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "phone-aster-5" || ids[1] != "tee-classic" {
		t.Fatalf("inactive and soft-deleted rows must be excluded: %v", ids)
	}
}

func TestProductRepo_SaveDerivedRoundTrip(t *testing.T) {
	db := memdb(t)
	repo := repos.NewProductRepo(db)
	ctx := context.Background()

	p, err := repo.Get(ctx, "tee-classic")
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Variants) != 3 {
		t.Fatalf("want 3 variants, got %d", len(p.Variants))
	}
	if size, ok := p.Variants[0].Attrs.Get("Size"); !ok || size != "S" {
		t.Fatalf("variant attrs not decoded: %+v", p.Variants[0].Attrs)
	}

	p.DynamicMarkupPercent = 5
	p.FinalPrice = 13.86
	p.Stock = 42
	p.VisibilityScore = 33
	p.StoreRating = 4.5
	for i := range p.Variants {
		p.Variants[i].DynamicMarkupPercent = 5
		p.Variants[i].FinalPrice = 13.86
	}
	if err := repo.SaveDerived(ctx, p); err != nil {
		t.Fatal(err)
	}
	if p.ScoreCalculatedAt == nil {
		t.Fatal("score timestamp not set after save")
	}

	back, err := repo.Get(ctx, "tee-classic")
	if err != nil {
		t.Fatal(err)
	}
	if back.DynamicMarkupPercent != 5 || back.FinalPrice != 13.86 || back.Stock != 42 {
		t.Fatalf("derived state lost: %+v", back)
	}
	if back.Variants[1].FinalPrice != 13.86 {
		t.Fatalf("variant price lost: %+v", back.Variants[1])
	}
	if back.ScoreCalculatedAt == nil {
		t.Fatal("score timestamp not persisted")
	}
}

func TestProductRepo_DecrementVariantStock(t *testing.T) {
	db := memdb(t)
	repo := repos.NewProductRepo(db)

	if err := repo.DecrementVariantStock("tee-classic", "tee-classic-m", 2); err != nil {
		t.Fatal(err)
	}
	var variantStock, productStock int
	if err := db.Get(&variantStock, `SELECT stock FROM variants WHERE id = 'tee-classic-m'`); err != nil {
		t.Fatal(err)
	}
	if variantStock != 20 {
		t.Fatalf("variant stock: want 20, got %d", variantStock)
	}
	if err := db.Get(&productStock, `SELECT stock FROM products WHERE id = 'tee-classic'`); err != nil {
		t.Fatal(err)
	}
	if productStock != 40 { // 14 + 20 + 6
		t.Fatalf("parent stock must track the variant sum: got %d", productStock)
	}

	if err := repo.DecrementVariantStock("tee-classic", "tee-classic-l", 100); err != repos.ErrInsufficientStock {
		t.Fatalf("want ErrInsufficientStock, got %v", err)
	}
}
