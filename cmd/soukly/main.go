package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"soukly/internal/config"
	"soukly/internal/consumer"
	"soukly/internal/engine"
	"soukly/internal/http/handlers"
	applog "soukly/internal/log"
	"soukly/internal/pricing"
	"soukly/internal/repos"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}
	zlog := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	var cache *redis.Client
	if cfg.RedisAddr != "" {
		cache = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}

	var writer *kafka.Writer
	if len(cfg.KafkaBrokers) > 0 {
		writer = &kafka.Writer{
			Addr:     kafka.TCP(cfg.KafkaBrokers...),
			Topic:    cfg.KafkaTopic,
			Balancer: &kafka.LeastBytes{},
		}
		defer writer.Close()
	}

	// Repricing engine wiring
	pricingCfg := pricing.DefaultConfig()
	prodRepo := repos.NewProductRepo(db)
	signals := &pricing.SignalReader{
		Orders:    repos.NewOrderRepo(db),
		Views:     repos.NewViewRepo(db),
		Carts:     repos.NewCartRepo(db),
		Favorites: repos.NewWishlistRepo(db),
		Ratings:   repos.NewReviewRepo(db),
		Cache:     cache,
		Timeout:   cfg.SignalTimeout,
		Log:       zlog.With().Str("component", "signals").Logger(),
	}
	eng := engine.New(prodRepo, signals, pricingCfg,
		zlog.With().Str("component", "engine").Logger(),
		engine.WithChunkSize(cfg.ChunkSize), engine.WithWorkers(cfg.Workers))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := &engine.Scheduler{
		Engine:   eng,
		Interval: cfg.RecalcInterval,
		Log:      zlog.With().Str("component", "scheduler").Logger(),
	}
	go sched.Run(ctx)

	if len(cfg.KafkaBrokers) > 0 {
		cons := &consumer.Consumer{
			Engine: eng,
			Reader: consumer.NewReader(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID),
			Log:    zlog.With().Str("component", "consumer").Logger(),
		}
		go cons.Run(ctx)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
		},
	})
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	// Anonymous session cookie: carts, wishlists and view signals hang
	// off it.
	app.Use(func(c *fiber.Ctx) error {
		if c.Cookies("sid") == "" {
			sid := uuid.NewString()
			c.Cookie(&fiber.Cookie{Name: "sid", Value: sid, SameSite: "Lax"})
			c.Request().Header.SetCookie("sid", sid)
		}
		return c.Next()
	})
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
	}))

	deps := handlers.NewDeps(db, pricingCfg, eng, writer, zlog)

	// Public catalog
	app.Get("/products", deps.ProductHandler.List)
	app.Get("/products/search", limiter.New(limiter.Config{Max: 20, Expiration: time.Minute}), deps.ProductHandler.Search)
	app.Get("/products/:id", deps.ProductHandler.Detail)
	app.Post("/products/:id/reviews", deps.ReviewHandler.Create)
	app.Get("/categories", deps.ProductHandler.Categories)

	// Cart, wishlist, orders
	app.Get("/cart", deps.CartHandler.View)
	app.Post("/cart", deps.CartHandler.Add)
	app.Post("/orders", deps.OrderHandler.Place)
	app.Get("/orders/:id", deps.OrderHandler.View)
	app.Get("/wishlist", deps.WishlistHandler.List)
	app.Post("/wishlist", deps.WishlistHandler.Save)
	app.Post("/wishlist/delete", deps.WishlistHandler.Unsave)

	// Admin
	admin := app.Group("/admin", handlers.RequireAdmin(cfg.AdminToken))
	admin.Post("/recalculate", deps.AdminHandler.RecalculateAll)
	admin.Post("/recalculate/:id", deps.AdminHandler.RecalculateOne)
	admin.Patch("/products/:id/ranking", deps.AdminHandler.SetRanking)
	admin.Get("/orders", deps.AdminHandler.ListOrders)
	admin.Post("/orders/:id/status", deps.AdminHandler.UpdateOrderStatus)

	// Health & metrics
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	go func() {
		<-ctx.Done()
		_ = app.Shutdown()
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
