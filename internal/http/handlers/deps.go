package handlers

import (
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"soukly/internal/engine"
	"soukly/internal/pricing"
	"soukly/internal/repos"
	"soukly/internal/services"
)

type Deps struct {
	ProductHandler  *ProductHandler
	CartHandler     *CartHandler
	OrderHandler    *OrderHandler
	WishlistHandler *WishlistHandler
	ReviewHandler   *ReviewHandler
	AdminHandler    *AdminHandler
}

func NewDeps(db *sqlx.DB, cfg pricing.Config, eng *engine.Engine, writer *kafka.Writer, log zerolog.Logger) *Deps {
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	viewRepo := repos.NewViewRepo(db)
	cartRepo := repos.NewCartRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	wishRepo := repos.NewWishlistRepo(db)
	reviewRepo := repos.NewReviewRepo(db)

	catalogSvc := services.NewCatalogService(catRepo, prodRepo, viewRepo, cfg)
	cartSvc := services.NewCartService(cartRepo, prodRepo)
	orderSvc := services.NewOrderService(cartRepo, prodRepo, orderRepo, writer, log)
	wishSvc := services.NewWishlistService(wishRepo)

	return &Deps{
		ProductHandler:  &ProductHandler{Catalog: catalogSvc},
		CartHandler:     &CartHandler{Cart: cartSvc},
		OrderHandler:    &OrderHandler{Order: orderSvc, Repo: orderRepo},
		WishlistHandler: &WishlistHandler{Wish: wishSvc},
		ReviewHandler:   &ReviewHandler{Prods: prodRepo, Reviews: reviewRepo},
		AdminHandler:    &AdminHandler{Engine: eng, Prods: prodRepo, Orders: orderSvc, OrderRepo: orderRepo},
	}
}
