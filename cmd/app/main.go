package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/tbelov/order-desk/internal/application/handler"
	"github.com/tbelov/order-desk/internal/application/service"
	"github.com/tbelov/order-desk/internal/cache"
	"github.com/tbelov/order-desk/internal/config"
	"github.com/tbelov/order-desk/internal/database"
	"github.com/tbelov/order-desk/internal/httpapi"
	"github.com/tbelov/order-desk/internal/kafka"
	"github.com/tbelov/order-desk/internal/observability"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := database.Connect(ctx, cfg.DSN())
	defer pool.Close()
	repo := database.New(pool, cfg.Tables)

	metrics := observability.NewProm("orderdesk")

	cacheCap := cfg.CacheCap
	if cacheCap <= 0 {
		cacheCap = 1
	}
	lru, err := cache.New(cacheCap)
	if err != nil {
		logger.Fatal("cache init failed", zap.Error(err))
	}
	lru.Warm(ctx, repo)

	svc := service.NewService(lru, repo, logger, metrics)

	if cfg.KafkaEnabled() {
		reader := kafkago.NewReader(kafkago.ReaderConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			GroupID: cfg.Kafka.Group,
		})
		defer reader.Close()

		consumer := kafka.NewConsumer(
			handler.NewHandler(svc, logger, metrics),
			reader,
			cfg.Kafka.Workers,
			logger,
		)
		go consumer.Start(ctx)
	}

	server := httpapi.New(svc, logger, metrics)
	logger.Info("server listening", zap.String("addr", cfg.HTTPAddr))
	if err := server.ListenAndServe(ctx, cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("listen failed", zap.Error(err))
	}
	logger.Info("server stopped")
}
