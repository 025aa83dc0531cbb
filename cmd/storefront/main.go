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

	"go.uber.org/zap"

	"github.com/gestion-commandes/storefront/internal/handlers"
	"github.com/gestion-commandes/storefront/internal/platform/config"
	"github.com/gestion-commandes/storefront/internal/platform/observability"
	"github.com/gestion-commandes/storefront/internal/platform/recordstore"
	"github.com/gestion-commandes/storefront/internal/platform/textutil"
	storerepo "github.com/gestion-commandes/storefront/internal/repositories/recordstore"
	"github.com/gestion-commandes/storefront/internal/services"
)

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("storefront")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	store, err := newStore(ctx, cfg.Store)
	if err != nil {
		logger.Fatal("failed to initialise record store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("record store close error", zap.Error(err))
		}
	}()
	logger.Info("record store ready", zap.String("backend", cfg.Store.Backend))

	catalogRepo, err := storerepo.NewCatalogRepository(store)
	if err != nil {
		logger.Fatal("failed to initialise catalog repository", zap.Error(err))
	}
	cartRepo, err := storerepo.NewCartRepository(store)
	if err != nil {
		logger.Fatal("failed to initialise cart repository", zap.Error(err))
	}
	orderRepo, err := storerepo.NewOrderRepository(store)
	if err != nil {
		logger.Fatal("failed to initialise order repository", zap.Error(err))
	}

	formatter, err := textutil.NewCurrencyFormatter(cfg.Locale.Currency, cfg.Locale.Language)
	if err != nil {
		logger.Fatal("failed to initialise currency formatter", zap.Error(err))
	}

	discountRate := cfg.Pricing.DiscountRateDecimal()

	catalogService, err := services.NewCatalogService(services.CatalogServiceDeps{
		Repository: catalogRepo,
		Logger:     observability.EventLogger(logger.Named("catalog")),
	})
	if err != nil {
		logger.Fatal("failed to initialise catalog service", zap.Error(err))
	}

	cartLogger := logger.Named("cart")
	cartService, err := services.NewCartService(services.CartServiceDeps{
		Repository:   cartRepo,
		Catalog:      catalogService,
		DiscountRate: discountRate,
		Clock:        time.Now,
		Logger:       observability.EventLogger(cartLogger),
		Subscribers: []services.CartSubscriber{
			func(_ context.Context, cart services.Cart) {
				cartLogger.Debug("cart updated",
					zap.String("sessionID", cart.ID),
					zap.Int("lines", len(cart.Lines)),
					zap.Int("items", cart.ItemCount()),
				)
			},
		},
	})
	if err != nil {
		logger.Fatal("failed to initialise cart service", zap.Error(err))
	}

	checkoutService, err := services.NewCheckoutService(services.CheckoutServiceDeps{
		Orders:       orderRepo,
		Carts:        cartService,
		Catalog:      catalogService,
		DiscountRate: discountRate,
		Clock:        time.Now,
		Logger:       observability.EventLogger(logger.Named("checkout")),
	})
	if err != nil {
		logger.Fatal("failed to initialise checkout service", zap.Error(err))
	}

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthReadiness(storeProbe(store)),
	)

	httpLogger := logger.Named("http")
	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.RequestLogger(httpLogger),
			observability.Recoverer(httpLogger),
		),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithProductRoutes(handlers.NewCatalogHandlers(catalogService, formatter).Routes),
		handlers.WithCartRoutes(handlers.NewCartHandlers(cartService, formatter).Routes),
		handlers.WithCheckoutRoutes(handlers.NewCheckoutHandlers(checkoutService, cartService, formatter).Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := httpLogger.With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("storefront api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newStore(ctx context.Context, cfg config.StoreConfig) (recordstore.Store, error) {
	switch cfg.Backend {
	case "redis":
		return recordstore.NewRedisStore(ctx, recordstore.RedisOptions{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.KeyPrefix,
		})
	case "memory":
		return recordstore.NewMemoryStore(), nil
	case "file":
		return recordstore.NewFileStore(cfg.StateDir)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// storeProbe reads a well-known key to verify the record store answers. An
// absent key still proves the backend is reachable.
func storeProbe(store recordstore.Store) func(context.Context) error {
	return func(ctx context.Context) error {
		probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		_, err := store.Read(probeCtx, "storefront-state")
		if err != nil && !errors.Is(err, recordstore.ErrKeyNotFound) {
			return err
		}
		return nil
	}
}
