package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/iliyamo/resort-storefront/internal/apiclient"
	"github.com/iliyamo/resort-storefront/internal/config"
	"github.com/iliyamo/resort-storefront/internal/database"
	"github.com/iliyamo/resort-storefront/internal/handler"
	"github.com/iliyamo/resort-storefront/internal/logger"
	"github.com/iliyamo/resort-storefront/internal/middleware"
	"github.com/iliyamo/resort-storefront/internal/notify"
	"github.com/iliyamo/resort-storefront/internal/payment"
	"github.com/iliyamo/resort-storefront/internal/queue"
	"github.com/iliyamo/resort-storefront/internal/router"
	"github.com/iliyamo/resort-storefront/internal/storage"
	"github.com/iliyamo/resort-storefront/internal/telemetry"
)

func main() {
	cfg := config.Load()
	level := logger.ParseLevel(cfg.LogLevel)
	lg := logger.New(level, "storefront")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Tracing, cfg.Env)
	if err != nil {
		log.Fatalf("tracing: %v", err)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		lg.Info("redis unavailable; cache, rate limit and alerts disabled")
	}

	checks := map[string]handler.Check{}
	var slots storage.SlotStore
	switch cfg.StorageDriver {
	case "mysql":
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.Fatalf("mysql: %v", err)
		}
		defer db.Close()
		store := storage.NewSQLSlotStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			log.Fatalf("mysql schema: %v", err)
		}
		slots = store
		checks["mysql"] = pingDB(db)
	default:
		if rdb == nil {
			log.Fatal("STORAGE_DRIVER=redis needs a reachable redis")
		}
		slots = storage.NewRedisSlotStore(rdb, "slot", cfg.SlotTTL)
	}

	var (
		notifier notify.Notifier
		alerts   handler.AlertSource
	)
	if rdb != nil {
		flash := notify.NewFlash(rdb, "flash", 24*time.Hour)
		notifier, alerts = flash, flash
		checks["redis"] = pingRedis(rdb)
	}

	var events queue.Publisher = queue.NopPublisher{}
	if cfg.RabbitURL != "" {
		events = queue.NewAMQPPublisher(cfg.RabbitURL, logger.New(level, "rabbitmq"))
		if rdb != nil {
			consumer := queue.NewModerationConsumer(cfg.RabbitURL, func(ctx context.Context, ev queue.ReviewModeratedEvent) error {
				n, err := middleware.InvalidateCache(ctx, rdb, cfg.Cache.Prefix, ev.RoomSlug)
				if err == nil {
					lg.Debug("dropped %d cached review pages for %s", n, ev.RoomSlug)
				}
				return err
			}, logger.New(level, "moderation-consumer"))
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					lg.Error("moderation consumer stopped: %v", err)
				}
			}()
		}
	}

	api := apiclient.New(cfg.BackendURL, cfg.BackendTimeout, logger.New(level, "api"))

	gateway := payment.NewWidgetGateway(cfg.Checkout.Secret, cfg.Checkout.PendingTTL, logger.New(level, "checkout"))
	go gateway.Run(ctx, cfg.Checkout.SweepEvery)

	flow := payment.NewFlow(api, gateway, notifier, logger.New(level, "payment"), payment.Config{
		Key:             cfg.Checkout.Key,
		StoreName:       cfg.Checkout.StoreName,
		ThemeColor:      cfg.Checkout.ThemeColor,
		DefaultCurrency: cfg.Checkout.Currency,
	})

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = middleware.ErrorHandler(lg)
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Printf("%s %s %d %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	router.RegisterRoutes(e, router.Handlers{
		Health:        handler.NewHealthHandler(checks),
		Session:       handler.NewSessionHandler(cfg.TokenCookie, cfg.CookieSecure, cfg.JWTSecret),
		Rooms:         handler.NewRoomHandler(api, api, logger.New(level, "rooms")),
		Cart:          handler.NewCartHandler(slots, api, api, logger.New(level, "cart")),
		Checkout:      handler.NewCheckoutHandler(flow, gateway, slots, api, events, notifier, logger.New(level, "checkout")),
		Reviews:       handler.NewReviewHandler(api, events, notifier, logger.New(level, "reviews")),
		Notifications: handler.NewNotificationHandler(alerts),
	}, router.Middleware{
		Session: middleware.Session(middleware.SessionConfig{
			Cookie:      cfg.SessionCookie,
			TokenCookie: cfg.TokenCookie,
			JWTSecret:   cfg.JWTSecret,
			Secure:      cfg.CookieSecure,
			Log:         logger.New(level, "session"),
		}),
		ReviewCache: middleware.NewRedisCache(cfg.Cache, rdb, middleware.ParamScope("slug")),
		RateLimit:   middleware.NewTokenBucket(cfg.Limit, rdb),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(e, "storefront"),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("listening on %s (env=%s, storage=%s)", srv.Addr, cfg.Env, cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("http shutdown: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		lg.Error("tracing shutdown: %v", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}

func pingRedis(rdb *redis.Client) handler.Check {
	return func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
}

func pingDB(db *sql.DB) handler.Check {
	return func(ctx context.Context) error { return db.PingContext(ctx) }
}
