package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront/api/routes"
	"github.com/angelmondragon/storefront/internal/carousel"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/checkout"
	products "github.com/angelmondragon/storefront/internal/products"
	"github.com/angelmondragon/storefront/internal/wishlist"
	"github.com/angelmondragon/storefront/pkg/catalog"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/redis"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Env:         cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res := &resources{}
	defer func() {
		if closeErr := res.Close(); closeErr != nil {
			logg.Error(context.Background(), "error closing resources", closeErr)
			err = multierr.Append(err, closeErr)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	catalogMetrics := metrics.NewCatalogMetrics(reg)
	cartMetrics := metrics.NewCartMetrics(reg)
	cronMetrics := metrics.NewCronJobMetrics(reg)

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return fmt.Errorf("bootstrap redis: %w", err)
		}
		res.add("redis", redisClient.Close)
	}

	store, err := openSessionStore(ctx, cfg, logg, redisClient, res)
	if err != nil {
		return err
	}

	client, err := catalog.NewClient(cfg.Catalog.BaseURL,
		catalog.WithTimeout(cfg.Catalog.Timeout),
		catalog.WithMediaBase(cfg.Catalog.MediaBase()),
		catalog.WithBreaker(cfg.Catalog.BreakerMaxFailures, cfg.Catalog.BreakerOpenTimeout, cfg.Catalog.BreakerHalfOpenProbes),
		catalog.WithMetrics(catalogMetrics),
	)
	if err != nil {
		return fmt.Errorf("create catalog client: %w", err)
	}
	var cache catalog.Cache
	if redisClient != nil {
		cache = redisClient
	}
	source := catalog.NewCachedSource(client, cache, cfg.Catalog.CacheTTL, logg, catalogMetrics)

	locker, err := sessionGuard(cfg, redisClient)
	if err != nil {
		return fmt.Errorf("create session locker: %w", err)
	}
	cartService, err := cart.NewService(store, locker, source, logg, cartMetrics)
	if err != nil {
		return fmt.Errorf("create cart service: %w", err)
	}
	wishlistService, err := wishlist.NewService(wishlist.ServiceParams{
		Repo:   wishlist.NewRepository(store),
		Locker: locker,
		Logger: logg,
	})
	if err != nil {
		return fmt.Errorf("create wishlist service: %w", err)
	}
	productService, err := products.NewService(products.ServiceParams{
		Source:    source,
		Hearts:    wishlistService,
		MediaBase: cfg.Catalog.MediaBase(),
		Logger:    logg,
	})
	if err != nil {
		return fmt.Errorf("create product service: %w", err)
	}
	pricing, err := checkout.NewPricing(cfg.Checkout)
	if err != nil {
		return fmt.Errorf("checkout pricing: %w", err)
	}
	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Cart:      cartService,
		Products:  source,
		Pricing:   pricing,
		MediaBase: cfg.Catalog.MediaBase(),
	})
	if err != nil {
		return fmt.Errorf("create checkout service: %w", err)
	}

	if err := startLocalSweep(ctx, cfg, logg, store, cronMetrics); err != nil {
		return err
	}

	carousels := carousel.NewRegistry(cfg.Carousel.Interval)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	logCtx := logg.WithFields(ctx, map[string]any{
		"addr":          addr,
		"instance":      id,
		"session_store": cfg.Session.Store,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			store,
			redisClient,
			source,
			client,
			productService,
			cartService,
			wishlistService,
			checkoutService,
			carousels,
			promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	// SSE streams only end when their carousel closes.
	carousels.CloseAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logg.Info(logCtx, "api server stopped")
	return nil
}
