package repos

import (
	"log"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Seed baseline catalog data if DB is empty (idempotent).
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Categories
CREATE TABLE IF NOT EXISTS categories(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name_nocase ON categories(LOWER(name));

-- Sellers
CREATE TABLE IF NOT EXISTS sellers(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);

-- Products. merchant_price is the seller floor; price is the legacy list
-- price kept for rows created before merchant_price existed. The derived
-- columns (dynamic_markup_percent, final_price, visibility_score, the
-- *_24h counters, conversion_rate, store_rating, score_calculated_at)
-- are written only by the repricing engine.
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
  seller_id TEXT NOT NULL REFERENCES sellers(id) ON DELETE RESTRICT,
  title TEXT NOT NULL,
  description TEXT,
  images_json TEXT,
  merchant_price NUMERIC NOT NULL DEFAULT 0 CHECK (merchant_price >= 0),
  price NUMERIC NOT NULL DEFAULT 0 CHECK (price >= 0),
  discount_price NUMERIC,
  base_markup_percent NUMERIC NOT NULL DEFAULT 10 CHECK (base_markup_percent >= 0),
  dynamic_markup_percent NUMERIC NOT NULL DEFAULT 0,
  final_price NUMERIC NOT NULL DEFAULT 0,
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  featured INTEGER NOT NULL DEFAULT 0,
  priority_score NUMERIC NOT NULL DEFAULT 0 CHECK (priority_score BETWEEN 0 AND 100),
  visibility_score NUMERIC NOT NULL DEFAULT 0,
  conversion_rate NUMERIC NOT NULL DEFAULT 0,
  store_rating NUMERIC NOT NULL DEFAULT 0,
  views_24h INTEGER NOT NULL DEFAULT 0,
  cart_count_24h INTEGER NOT NULL DEFAULT 0,
  sales_24h INTEGER NOT NULL DEFAULT 0,
  favorites_count INTEGER NOT NULL DEFAULT 0,
  active INTEGER NOT NULL DEFAULT 1,
  deleted_at TEXT,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT,
  score_calculated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_products_category   ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_products_seller     ON products(seller_id);
CREATE INDEX IF NOT EXISTS idx_products_active     ON products(active, deleted_at);
CREATE INDEX IF NOT EXISTS idx_products_visibility ON products(visibility_score);
CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at);

-- Variants. base_markup_percent NULL means "inherit the product's";
-- dynamic_markup_percent always mirrors the parent product.
CREATE TABLE IF NOT EXISTS variants(
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  position INTEGER NOT NULL DEFAULT 0,
  attrs_json TEXT NOT NULL DEFAULT '{}',
  merchant_price NUMERIC NOT NULL CHECK (merchant_price >= 0),
  base_markup_percent NUMERIC,
  dynamic_markup_percent NUMERIC NOT NULL DEFAULT 0,
  final_price NUMERIC NOT NULL DEFAULT 0,
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0)
);
CREATE INDEX IF NOT EXISTS idx_variants_product ON variants(product_id, position);

-- Product views (one row per view, timestamped for 24h windowing)
CREATE TABLE IF NOT EXISTS product_views(
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  session_id TEXT,
  viewed_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_views_product_time ON product_views(product_id, viewed_at);

-- Carts
CREATE TABLE IF NOT EXISTS carts(
  id TEXT PRIMARY KEY,
  session_id TEXT UNIQUE NOT NULL,
  updated_at TEXT
);

-- A cart line is (cart, product, variant); variant_key folds the NULL
-- no-variant case into the line identity so two variants of the same
-- product never merge.
CREATE TABLE IF NOT EXISTS cart_items(
  cart_id    TEXT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE RESTRICT,
  variant_id TEXT REFERENCES variants(id) ON DELETE RESTRICT,
  variant_key TEXT GENERATED ALWAYS AS (COALESCE(variant_id,'')) STORED,
  qty INTEGER NOT NULL CHECK (qty >= 1),
  price_at_add NUMERIC NOT NULL,
  created_at TEXT,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_cart_items_line ON cart_items(cart_id, product_id, variant_key);
CREATE INDEX IF NOT EXISTS idx_cart_items_product_time ON cart_items(product_id, created_at);

-- Orders
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  session_id TEXT,
  customer_name TEXT,
  customer_email TEXT,
  total NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'PLACED',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);
CREATE INDEX IF NOT EXISTS idx_orders_status     ON orders(status);

CREATE TABLE IF NOT EXISTS order_items(
  order_id  TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id),
  variant_id TEXT REFERENCES variants(id),
  variant_key TEXT GENERATED ALWAYS AS (COALESCE(variant_id,'')) STORED,
  qty INTEGER NOT NULL,
  price NUMERIC NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_order_items_line ON order_items(order_id, product_id, variant_key);
CREATE INDEX IF NOT EXISTS idx_order_items_product ON order_items(product_id);

-- Wishlists
CREATE TABLE IF NOT EXISTS wishlists(
  id TEXT PRIMARY KEY,
  session_id TEXT UNIQUE NOT NULL,
  updated_at TEXT
);

CREATE TABLE IF NOT EXISTS wishlist_items(
  wishlist_id TEXT NOT NULL REFERENCES wishlists(id) ON DELETE CASCADE,
  product_id  TEXT NOT NULL REFERENCES products(id) ON DELETE RESTRICT,
  created_at  TEXT,
  PRIMARY KEY (wishlist_id, product_id)
);
CREATE INDEX IF NOT EXISTS idx_wishlist_items_product ON wishlist_items(product_id);

-- Reviews (seller rating aggregate, product fallback)
CREATE TABLE IF NOT EXISTS reviews(
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  seller_id TEXT NOT NULL REFERENCES sellers(id) ON DELETE CASCADE,
  rating NUMERIC NOT NULL CHECK (rating BETWEEN 0 AND 5),
  comment TEXT,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_reviews_seller  ON reviews(seller_id);
CREATE INDEX IF NOT EXISTS idx_reviews_product ON reviews(product_id);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM categories`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo sellers/categories/products")

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	tx.MustExec(`INSERT INTO categories(id,name) VALUES
	  ('electronics','Electronics'),
	  ('fashion','Fashion'),
	  ('home-kitchen','Home & Kitchen')`)

	tx.MustExec(`INSERT INTO sellers(id,name) VALUES
	  ('s-kadero','Kadero Traders'),
	  ('s-meridian','Meridian Goods')`)

	tx.MustExec(`INSERT INTO products
	  (id,category_id,seller_id,title,description,merchant_price,base_markup_percent,stock,featured,priority_score,images_json) VALUES
	  ('phone-aster-5','electronics','s-kadero','Aster 5 Smartphone','6.1in dual-SIM smartphone',240.00,10,35,1,0,'["products/phone-aster-5/main.jpg"]'),
	  ('blender-pro','home-kitchen','s-meridian','BlendPro 900 Blender','900W kitchen blender',55.00,10,120,0,0,'["products/blender-pro/main.jpg"]')`)

	// Legacy row: no merchant_price yet, list price with a discount price.
	tx.MustExec(`INSERT INTO products
	  (id,category_id,seller_id,title,description,price,discount_price,base_markup_percent,stock) VALUES
	  ('lamp-brass','home-kitchen','s-meridian','Brass Desk Lamp','Adjustable brass desk lamp',80.00,64.00,10,9)`)

	tx.MustExec(`INSERT INTO products
	  (id,category_id,seller_id,title,description,merchant_price,base_markup_percent,stock) VALUES
	  ('tee-classic','fashion','s-kadero','Classic Cotton Tee','Crew-neck cotton t-shirt',12.00,10,0)`)

	tx.MustExec(`INSERT INTO variants(id,product_id,position,attrs_json,merchant_price,stock) VALUES
	  ('tee-classic-s','tee-classic',0,'{"Size":"S","Color":"Black"}',12.00,14),
	  ('tee-classic-m','tee-classic',1,'{"Size":"M","Color":"Black"}',12.00,22),
	  ('tee-classic-l','tee-classic',2,'{"Size":"L","Color":"White"}',13.00,6)`)

	tx.MustExec(`INSERT INTO reviews(id,product_id,seller_id,rating) VALUES
	  ('rev-1','phone-aster-5','s-kadero',5),
	  ('rev-2','phone-aster-5','s-kadero',4),
	  ('rev-3','blender-pro','s-meridian',4)`)

	return tx.Commit()
}
