package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"soukly/internal/engine"
	"soukly/internal/http/handlers"
	"soukly/internal/pricing"
	"soukly/internal/repos"
)

const adminToken = "test-admin-token"

// Minimal app mirroring the production routes.
func newTestApp(t *testing.T) (*fiber.App, *sqlx.DB) {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	// In-memory sqlite: every pool connection is its own database.
	db.SetMaxOpenConns(1)

	cfg := pricing.DefaultConfig()
	signals := &pricing.SignalReader{
		Orders:    repos.NewOrderRepo(db),
		Views:     repos.NewViewRepo(db),
		Carts:     repos.NewCartRepo(db),
		Favorites: repos.NewWishlistRepo(db),
		Ratings:   repos.NewReviewRepo(db),
		Log:       zerolog.Nop(),
	}
	eng := engine.New(repos.NewProductRepo(db), signals, cfg, zerolog.Nop())
	deps := handlers.NewDeps(db, cfg, eng, nil, zerolog.Nop())

	app := fiber.New()
	app.Use(requestid.New())

	app.Get("/products", deps.ProductHandler.List)
	app.Get("/products/search", deps.ProductHandler.Search)
	app.Get("/products/:id", deps.ProductHandler.Detail)
	app.Post("/products/:id/reviews", deps.ReviewHandler.Create)
	app.Get("/categories", deps.ProductHandler.Categories)
	app.Get("/cart", deps.CartHandler.View)
	app.Post("/cart", deps.CartHandler.Add)
	app.Post("/orders", deps.OrderHandler.Place)

	admin := app.Group("/admin", handlers.RequireAdmin(adminToken))
	admin.Post("/recalculate", deps.AdminHandler.RecalculateAll)
	admin.Post("/recalculate/:id", deps.AdminHandler.RecalculateOne)
	admin.Patch("/products/:id/ranking", deps.AdminHandler.SetRanking)
	admin.Get("/orders", deps.AdminHandler.ListOrders)

	return app, db
}

func TestAdminGuard(t *testing.T) {
	app, _ := newTestApp(t)

	// Anonymous -> 403
	resp, err := app.Test(httptest.NewRequest("POST", "/admin/recalculate", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("anonymous expected 403, got %d", resp.StatusCode)
	}

	// Wrong token -> 403
	req := httptest.NewRequest("POST", "/admin/recalculate", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("wrong token expected 403, got %d", resp.StatusCode)
	}

	// Valid token -> 200 with a run summary
	req = httptest.NewRequest("POST", "/admin/recalculate", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err = app.Test(req, 30000)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin expected 200, got %d", resp.StatusCode)
	}
	var summary struct {
		Total   int `json:"total"`
		Updated int `json:"updated"`
		Errored int `json:"errored"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		t.Fatal(err)
	}
	if summary.Total != 4 || summary.Updated != 4 || summary.Errored != 0 {
		t.Fatalf("bad summary: %+v", summary)
	}
}

func TestAdminRecalculateWritesPrices(t *testing.T) {
	app, db := newTestApp(t)

	req := httptest.NewRequest("POST", "/admin/recalculate", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err := app.Test(req, 30000)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var price float64
	if err := db.Get(&price, `SELECT final_price FROM products WHERE id='phone-aster-5'`); err != nil {
		t.Fatal(err)
	}
	if price != 264 { // 240 * 1.10
		t.Fatalf("want 264.00 persisted, got %.2f", price)
	}
}

func TestAdminSetRanking(t *testing.T) {
	app, db := newTestApp(t)

	form := url.Values{"featured": {"true"}, "priority_score": {"75"}}
	req := httptest.NewRequest("PATCH", "/admin/products/blender-pro/ranking",
		strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var row struct {
		Featured bool    `db:"featured"`
		Priority float64 `db:"priority_score"`
	}
	if err := db.Get(&row, `SELECT featured, priority_score FROM products WHERE id='blender-pro'`); err != nil {
		t.Fatal(err)
	}
	if !row.Featured || row.Priority != 75 {
		t.Fatalf("ranking not persisted: %+v", row)
	}

	// Out-of-range priority rejected.
	form = url.Values{"priority_score": {"500"}}
	req = httptest.NewRequest("PATCH", "/admin/products/blender-pro/ranking",
		strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestProductEndpoints(t *testing.T) {
	app, db := newTestApp(t)

	// Listing.
	resp, err := app.Test(httptest.NewRequest("GET", "/products?prefs=electronics", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "phone-aster-5") {
		t.Fatalf("listing missing seeded product: %s", body)
	}

	// Malformed prefs rejected.
	resp, err = app.Test(httptest.NewRequest("GET", "/products?prefs=bad!!id", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad prefs expected 400, got %d", resp.StatusCode)
	}

	// Detail records a view signal.
	req := httptest.NewRequest("GET", "/products/phone-aster-5", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "test-sid"})
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("detail expected 200, got %d", resp.StatusCode)
	}
	var views int
	if err := db.Get(&views, `SELECT COUNT(*) FROM product_views WHERE product_id='phone-aster-5'`); err != nil {
		t.Fatal(err)
	}
	if views != 1 {
		t.Fatalf("view signal not recorded, got %d rows", views)
	}

	// Unknown product.
	resp, err = app.Test(httptest.NewRequest("GET", "/products/nope", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown product expected 404, got %d", resp.StatusCode)
	}
}

func TestProductDetailAvailability(t *testing.T) {
	app, _ := newTestApp(t)

	check := func(id, wantStatus string) {
		t.Helper()
		resp, err := app.Test(httptest.NewRequest("GET", "/products/"+id, nil))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", id, resp.StatusCode)
		}
		var body struct {
			Availability struct {
				Status string `json:"status"`
				Qty    int    `json:"qty"`
			} `json:"availability"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body.Availability.Status != wantStatus {
			t.Fatalf("%s: want %s, got %+v", id, wantStatus, body.Availability)
		}
	}

	check("phone-aster-5", "IN_STOCK") // 35 units
	check("lamp-brass", "LOW_STOCK")   // 9 units
	check("tee-classic", "IN_STOCK")   // variant sum 42
}

func postReview(app *fiber.App, productID string, form url.Values) (*http.Response, error) {
	req := httptest.NewRequest("POST", "/products/"+productID+"/reviews",
		strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return app.Test(req)
}

func TestReviewCreate(t *testing.T) {
	app, db := newTestApp(t)

	resp, err := postReview(app, "blender-pro", url.Values{
		"rating": {"5"}, "comment": {"sturdy, survives daily smoothies"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	// The review lands on the product's seller and moves the store
	// rating signal.
	var row struct {
		SellerID string  `db:"seller_id"`
		Rating   float64 `db:"rating"`
	}
	if err := db.Get(&row, `
	  SELECT seller_id, rating FROM reviews
	  WHERE product_id = 'blender-pro' ORDER BY datetime(created_at) DESC LIMIT 1`); err != nil {
		t.Fatal(err)
	}
	if row.SellerID != "s-meridian" || row.Rating != 5 {
		t.Fatalf("review row wrong: %+v", row)
	}
	rating, err := repos.NewReviewRepo(db).StoreRating(context.Background(), "s-meridian", "blender-pro")
	if err != nil {
		t.Fatal(err)
	}
	if rating <= 4 {
		t.Fatalf("5-star review should lift the seller above the seeded 4, got %v", rating)
	}

	// Out-of-range rating rejected.
	resp, err = postReview(app, "blender-pro", url.Values{"rating": {"9"}})
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("rating 9 expected 400, got %d", resp.StatusCode)
	}

	// Unknown product rejected.
	resp, err = postReview(app, "no-such-product", url.Values{"rating": {"4"}})
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown product expected 404, got %d", resp.StatusCode)
	}
}

func TestAdminListOrders(t *testing.T) {
	app, db := newTestApp(t)

	db.MustExec(`INSERT INTO orders(id, session_id, customer_name, customer_email, total, status, created_at)
	  VALUES ('ord-42','sess-9','Nadia','nadia@example.com',264,'PLACED','2026-08-29T10:00:00Z')`)

	req := httptest.NewRequest("GET", "/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		Count  int `json:"count"`
		Orders []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"orders"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 1 || len(body.Orders) != 1 || body.Orders[0].ID != "ord-42" {
		t.Fatalf("order listing wrong: %+v", body)
	}

	// The listing sits behind the admin guard.
	resp, err = app.Test(httptest.NewRequest("GET", "/admin/orders", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("anonymous expected 403, got %d", resp.StatusCode)
	}
}
