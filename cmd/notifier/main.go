package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-kiosk-orders/internal/config"
	kafkax "github.com/ariefcatur/go-kiosk-orders/internal/kafka"
	"github.com/ariefcatur/go-kiosk-orders/internal/logging"
	"github.com/ariefcatur/go-kiosk-orders/internal/notifier"
	"github.com/ariefcatur/go-kiosk-orders/internal/orders"
	"github.com/ariefcatur/go-kiosk-orders/internal/redisx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	service := cfg.ServiceName + "-notifier"
	logger, err := logging.New(cfg.LogLevel, service)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis (dedup)
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &notifier.Service{
		Dedup: redisx.NewDedup(rdb, service),
		Sink:  notifier.LogSink{Log: logger},
		Log:   logger,
	}

	// Consumer
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.NotifierGroup, orders.TopicOrderEvents, cfg.NotifierWorkers, logger)
	done := make(chan struct{})
	go func() {
		defer close(done)
		logger.Info("notifier consumer started",
			zap.String("group", cfg.NotifierGroup),
			zap.String("topic", orders.TopicOrderEvents),
			zap.Int("workers", cfg.NotifierWorkers))
		if err := cons.Start(ctx, svc.HandleOrderEvent); err != nil {
			logger.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	logger.Info("shutting down consumer...")
	cancel()
	<-done
}
