package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-kiosk-orders/internal/config"
	"github.com/ariefcatur/go-kiosk-orders/internal/httpx"
	kafkax "github.com/ariefcatur/go-kiosk-orders/internal/kafka"
	"github.com/ariefcatur/go-kiosk-orders/internal/logging"
	"github.com/ariefcatur/go-kiosk-orders/internal/memstore"
	"github.com/ariefcatur/go-kiosk-orders/internal/menu"
	"github.com/ariefcatur/go-kiosk-orders/internal/orders"
	"github.com/ariefcatur/go-kiosk-orders/internal/postgres"
	"github.com/ariefcatur/go-kiosk-orders/internal/redisx"
	"github.com/ariefcatur/go-kiosk-orders/internal/reports"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.ServiceName)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stores
	var (
		orderStore orders.Store
		menuRepo   menu.Repository
	)
	switch cfg.StoreDriver {
	case config.StoreMemory:
		orderStore = memstore.NewOrderStore()
		menuRepo = memstore.NewMenuStore()
		logger.Warn("using in-memory store, data is lost on restart")
	default:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			logger.Fatal("db migrate", zap.Error(err))
		}
		orderStore = &postgres.OrderStore{DB: db}
		menuRepo = &postgres.MenuStore{DB: db}
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderEvents, 1024, logger)
	prod.Start(ctx)

	// Domain
	catalog := menu.NewCatalog(menuRepo, logger, menu.WithCategoryCache(redisx.NewCategoryCache(rdb, logger)))
	if cfg.SeedMenu {
		n, err := catalog.Seed(ctx, menu.DefaultItems())
		if err != nil {
			logger.Fatal("seed menu", zap.Error(err))
		}
		if n > 0 {
			logger.Info("menu seeded", zap.Int("items", n))
		}
	}
	svc := orders.NewService(orders.Deps{
		Store:     orderStore,
		Menu:      catalog,
		Publisher: kafkax.NewPublisher(prod),
		Cache:     redisx.NewStatusCache(rdb),
		Log:       logger,
		Producer:  cfg.ServiceName,
	})
	sales := reports.NewSales(orderStore, catalog, logger)

	// Router & handlers
	router := httpx.NewRouter(logger)
	staff := httpx.RequireStaff(cfg.StaffKey)
	if cfg.StaffKey == "" {
		logger.Warn("STAFF_API_KEY empty, staff routes are open")
	}
	(&httpx.MenuHandler{Catalog: catalog, Staff: staff, Log: logger, Timeout: cfg.RequestTimeout}).Register(router)
	(&httpx.OrdersHandler{
		Orders:  svc,
		Idem:    redisx.NewIdempotency(rdb),
		Staff:   staff,
		Log:     logger,
		Timeout: cfg.RequestTimeout,
	}).Register(router)
	(&httpx.PaymentsHandler{Orders: svc, Staff: staff, Log: logger, Timeout: cfg.RequestTimeout}).Register(router)
	(&httpx.KitchenHandler{Orders: svc, Sales: sales, Staff: staff, Log: logger, Timeout: cfg.RequestTimeout}).Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	// graceful shutdown
	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	if err := srv.Shutdown(ctx2); err != nil {
		// handler yang masih jalan dapat ErrProducerClosed, bukan panic
		logger.Warn("http shutdown", zap.Error(err))
	}
	prod.Close()      // tutup inbox -> flush & close writer
	prod.WaitClosed() // drain
	cancel()
}
