package main

import (
	"context"
	"database/sql"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	jwtware "github.com/gofiber/jwt/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/wichananm65/storefront-gateway/internal/address"
	"github.com/wichananm65/storefront-gateway/internal/auth"
	"github.com/wichananm65/storefront-gateway/internal/backend"
	"github.com/wichananm65/storefront-gateway/internal/cart"
	"github.com/wichananm65/storefront-gateway/internal/catalog"
	"github.com/wichananm65/storefront-gateway/internal/checkout"
	"github.com/wichananm65/storefront-gateway/internal/config"
	"github.com/wichananm65/storefront-gateway/internal/coupon"
	"github.com/wichananm65/storefront-gateway/internal/device"
	"github.com/wichananm65/storefront-gateway/internal/errs"
	"github.com/wichananm65/storefront-gateway/internal/favorite"
	"github.com/wichananm65/storefront-gateway/internal/metrics"
	"github.com/wichananm65/storefront-gateway/internal/order"
	"github.com/wichananm65/storefront-gateway/internal/payment"
	"github.com/wichananm65/storefront-gateway/internal/session"
	"github.com/wichananm65/storefront-gateway/internal/settings"
	"github.com/wichananm65/storefront-gateway/internal/storage"
)

// device hashes in redis live this long after the last write
const deviceTTL = 30 * 24 * time.Hour

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStorage := mustOpenStorage(ctx, cfg)
	defer closeStorage()

	be, err := backend.New(backend.Config{BaseURL: cfg.BackendBaseURL, Timeout: cfg.BackendTimeout})
	if err != nil {
		log.Fatalf("backend client: %v", err)
	}

	locales := settings.NewLocales(cfg.DefaultLocale, cfg.SupportedLocales)
	registry := session.NewRegistry(st, locales, 0)
	go registry.Run(ctx)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
			}
			log.Printf("unhandled error on %s %s: %v", c.Method(), c.Path(), err)
			return errs.Respond(c, err)
		},
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())
	setupCORS(app, cfg.AllowOrigins)
	app.Use(metrics.Middleware)
	app.Use(device.Middleware)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "sessions": registry.Len()})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	parser := auth.NewParser(cfg.JWTSecret)
	authService := auth.NewService(registry, parser, cfg.Firebase)
	markers := payment.NewMarkers(st, cfg.PendingOrderTTL)

	cartService := cart.NewService(registry, be, coupon.NewValidator(be), cfg.ShopSwitchPolicy)
	addressHandler := address.NewHandler(address.NewService(registry, be), registry)
	orderHandler := order.NewHandler(order.NewService(be), registry)
	checkoutHandler := checkout.NewHandler(checkout.NewService(registry, be, markers), registry)
	paymentHandler := payment.NewHandler(
		payment.NewResolver(be, markers, cartService),
		markers, registry, locales, cfg.PaymentCountdown,
	)

	auth.NewHandler(authService).RegisterPublicRoutes(app)
	settings.NewHandler(settings.NewService(registry, locales)).RegisterPublicRoutes(app)
	catalog.NewHandler(catalog.NewService(be, registry)).RegisterPublicRoutes(app)
	cart.NewHandler(cartService).RegisterPublicRoutes(app)
	favorite.NewHandler(favorite.NewService(registry, be)).RegisterPublicRoutes(app)
	addressHandler.RegisterPublicRoutes(app)
	paymentHandler.RegisterPublicRoutes(app)

	app.Use(auth.SessionBearer(authService))
	if parser.Verifies() {
		app.Use(jwtware.New(jwtware.Config{
			SigningKey: []byte(cfg.JWTSecret),
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
			},
		}))
	} else {
		log.Printf("JWT_SECRET is not set, bearer tokens are checked for expiry only")
		app.Use(auth.RequireSession(parser))
	}

	orderHandler.RegisterProtectedRoutes(app)
	addressHandler.RegisterProtectedRoutes(app)
	checkoutHandler.RegisterProtectedRoutes(app)

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("storefront gateway listening on %s (state: %s, backend: %s)", cfg.Addr, cfg.StateBackend, cfg.BackendBaseURL)
	if err := app.Listen(cfg.Addr); err != nil {
		log.Fatalf("listen: %v", err)
	}
}

func setupCORS(app *fiber.App, origins string) {
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, " + device.HeaderName,
		ExposeHeaders:    device.HeaderName,
		AllowCredentials: origins != "*",
	}))
}

// mustOpenStorage picks the device storage named by STATE_BACKEND.
func mustOpenStorage(ctx context.Context, cfg config.Config) (storage.Storage, func()) {
	switch cfg.StateBackend {
	case config.StateRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis ping: %v", err)
		}
		return storage.NewRedisStorage(client, deviceTTL), func() { _ = client.Close() }
	case config.StatePostgres:
		db := mustOpenDB(cfg.DatabaseURL)
		pg := storage.NewPostgresStorage(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatalf("device storage schema: %v", err)
		}
		return pg, func() { _ = db.Close() }
	default:
		log.Printf("device state is kept in memory and will not survive a restart")
		return storage.NewInMemoryStorage(), func() {}
	}
}

func mustOpenDB(dbURL string) *sql.DB {
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}

	if err := db.Ping(); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	return db
}
