package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"storefront/internal/cart"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/events"
	"storefront/internal/httpserver"
	"storefront/internal/logging"
	"storefront/internal/media"
	"storefront/internal/repository/cartsnapshot"
	categoryrepo "storefront/internal/repository/category"
	orderrepo "storefront/internal/repository/order"
	productrepo "storefront/internal/repository/product"
	tokenrepo "storefront/internal/repository/token"
	userrepo "storefront/internal/repository/user"
	cartsvc "storefront/internal/service/cart"
	categorysvc "storefront/internal/service/category"
	ordersvc "storefront/internal/service/order"
	productsvc "storefront/internal/service/product"
	usersvc "storefront/internal/service/user"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("api stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		return fmt.Errorf("connect to db: %w", err)
	}
	defer dbpool.Close()

	pricing := cart.Pricing{LotThreshold: cfg.LotThreshold, LotSize: cfg.LotSize}

	var snapshots cart.SnapshotStore
	switch cfg.CartSnapshotBackend {
	case "memory":
		snapshots = cartsnapshot.NewMemory()
	case "postgres":
		snapshots = cartsnapshot.NewPostgres(dbpool)
	default:
		return fmt.Errorf("unknown CART_SNAPSHOT_BACKEND %q", cfg.CartSnapshotBackend)
	}

	productRepo := productrepo.NewPostgres(dbpool, logger)
	productService := productsvc.New(productRepo)
	categoryService := categorysvc.New(categoryrepo.NewPostgres(dbpool))
	userService := usersvc.New(userrepo.NewPostgres(dbpool, logger), tokenrepo.NewPostgres(dbpool), cfg.TokenTTL, logger)

	cartService, err := cartsvc.New(snapshots, productRepo, cartsvc.Config{
		CacheSize:   cfg.CartCacheSize,
		Pricing:     pricing,
		StrictStock: cfg.CartStrictStock,
	}, logger)
	if err != nil {
		return err
	}

	var publisher ordersvc.Publisher = events.LogPublisher{Logger: logger}
	if cfg.RabbitURL != "" {
		pool, err := events.NewChannelPool(cfg.RabbitURL, cfg.RabbitQueue, cfg.ChannelPoolSize, logger)
		if err != nil {
			return fmt.Errorf("rabbitmq: %w", err)
		}
		defer pool.Close()
		publisher = events.NewPublisher(pool, cfg.RabbitQueue, logger)
	} else {
		logger.Warn("RABBITMQ_URL not set, order events will only be logged")
	}

	orderService := ordersvc.New(orderrepo.NewPostgres(dbpool, logger), cartService, publisher, ordersvc.Config{
		Pricing:     pricing,
		DeliveryFee: cfg.DeliveryFee,
	}, logger)

	deps := httpserver.Deps{
		CartSvc:     cartService,
		ProductSvc:  productService,
		CategorySvc: categoryService,
		OrderSvc:    orderService,
		UserSvc:     userService,
		CORSOrigins: cfg.CORSOrigins,
	}
	if cfg.GCSBucket != "" {
		client, err := storage.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("gcs client: %w", err)
		}
		defer client.Close()
		deps.Uploader = media.NewGCS(client, cfg.GCSBucket, logger)
	} else {
		logger.Warn("GCS_BUCKET not set, image uploads disabled")
	}

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, deps)
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
