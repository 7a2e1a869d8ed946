package domain

import "time"

type Category struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

// Product is the aggregate the repricing engine reads and mutates.
// MerchantPrice, BaseMarkupPercent, Featured and PriorityScore are set
// externally (seller/admin); DynamicMarkupPercent, FinalPrice, the 24h
// tracking counters and VisibilityScore are written only by the engine.
type Product struct {
	ID          string `db:"id"`
	CategoryID  string `db:"category_id"`
	SellerID    string `db:"seller_id"`
	Title       string `db:"title"`
	Description string `db:"description"`
	ImagesJSON  string `db:"images_json"`

	MerchantPrice        float64  `db:"merchant_price"`
	Price                float64  `db:"price"` // legacy list price, fallback when merchant_price is unset
	DiscountPrice        *float64 `db:"discount_price"`
	BaseMarkupPercent    float64  `db:"base_markup_percent"`
	DynamicMarkupPercent float64  `db:"dynamic_markup_percent"`
	FinalPrice           float64  `db:"final_price"`
	Stock                int      `db:"stock"`

	Featured        bool    `db:"featured"`
	PriorityScore   float64 `db:"priority_score"`
	VisibilityScore float64 `db:"visibility_score"`
	ConversionRate  float64 `db:"conversion_rate"`
	StoreRating     float64 `db:"store_rating"`

	Views24h       int `db:"views_24h"`
	CartCount24h   int `db:"cart_count_24h"`
	Sales24h       int `db:"sales_24h"`
	FavoritesCount int `db:"favorites_count"`

	Active            bool    `db:"active"`
	DeletedAt         *string `db:"deleted_at"`
	CreatedAt         string  `db:"created_at"`
	UpdatedAt         string  `db:"updated_at"`
	ScoreCalculatedAt *string `db:"score_calculated_at"`

	Variants []Variant `db:"-"`
}

// Variant is an independently priced sellable option of a product.
// BaseMarkupPercent is nullable: a nil value inherits the product's.
// DynamicMarkupPercent is always the parent product's single value.
type Variant struct {
	ID                   string       `db:"id"`
	ProductID            string       `db:"product_id"`
	Position             int          `db:"position"`
	Attrs                AttributeMap `db:"-"`
	AttrsJSON            string       `db:"attrs_json"`
	MerchantPrice        float64      `db:"merchant_price"`
	BaseMarkupPercent    *float64     `db:"base_markup_percent"`
	DynamicMarkupPercent float64      `db:"dynamic_markup_percent"`
	FinalPrice           float64      `db:"final_price"`
	Stock                int          `db:"stock"`
}

// BasePrice picks the price the markup chain is applied to: the seller's
// merchant price, or the legacy list price for rows migrated before
// merchant_price existed.
func (p *Product) BasePrice() float64 {
	if p.MerchantPrice > 0 {
		return p.MerchantPrice
	}
	return p.Price
}

func (v *Variant) BasePrice() float64 {
	return v.MerchantPrice
}

// TotalStock is the sellable stock: the variant sum when variants
// exist, else the product's own counter.
func (p *Product) TotalStock() int {
	if len(p.Variants) == 0 {
		return p.Stock
	}
	total := 0
	for i := range p.Variants {
		total += p.Variants[i].Stock
	}
	return total
}

// AgeDays returns the product age in (fractional) days at "now".
// Unparseable timestamps count as age zero, which only means the
// product keeps its newness boost a little longer.
func (p *Product) AgeDays(now time.Time) float64 {
	t, err := ParseTime(p.CreatedAt)
	if err != nil {
		return 0
	}
	age := now.Sub(t).Hours() / 24
	if age < 0 {
		return 0
	}
	return age
}

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// ParseTime accepts the timestamp formats found in the store: RFC3339
// written by the services and sqlite's CURRENT_TIMESTAMP format.
func ParseTime(s string) (time.Time, error) {
	var err error
	for _, layout := range timeLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

type Availability struct {
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty    int    `json:"qty,omitempty"`
}

// AvailabilityOf maps a stock level to the buyer-facing status. The
// low-stock threshold matches the one the ranking stock boost uses.
func AvailabilityOf(stock int) Availability {
	switch {
	case stock <= 0:
		return Availability{Status: "OUT_OF_STOCK"}
	case stock < 10:
		return Availability{Status: "LOW_STOCK", Qty: stock}
	default:
		return Availability{Status: "IN_STOCK", Qty: stock}
	}
}

// OrderEvent is the payload published to the order topic and consumed
// to refresh derived prices without waiting for the next batch cycle.
type OrderEvent struct {
	OrderID    string   `json:"order_id"`
	Status     string   `json:"status"`
	ProductIDs []string `json:"product_ids"`
}
