package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/obafemi/chopwell-backend/api/routes"
	"github.com/obafemi/chopwell-backend/internal/batches"
	"github.com/obafemi/chopwell-backend/internal/idempotency"
	"github.com/obafemi/chopwell-backend/internal/orders"
	"github.com/obafemi/chopwell-backend/internal/payments"
	"github.com/obafemi/chopwell-backend/internal/products"
	"github.com/obafemi/chopwell-backend/internal/stock"
	"github.com/obafemi/chopwell-backend/pkg/config"
	"github.com/obafemi/chopwell-backend/pkg/db"
	"github.com/obafemi/chopwell-backend/pkg/logger"
	"github.com/obafemi/chopwell-backend/pkg/metrics"
	"github.com/obafemi/chopwell-backend/pkg/migrate"
	"github.com/obafemi/chopwell-backend/pkg/monnify"
	"github.com/obafemi/chopwell-backend/pkg/outbox"
	"github.com/obafemi/chopwell-backend/pkg/redis"
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
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	monnifyClient, err := monnify.NewClient(context.Background(), cfg.Monnify, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create monnify client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	reconMetrics := metrics.NewReconciliationMetrics(registry)

	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	stockSvc, err := stock.NewService(dbClient, outboxSvc, redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock service", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	ordersSvc, err := orders.NewService(ordersRepo, dbClient, stockSvc, outboxSvc, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	productsSvc, err := products.NewService(products.NewRepository(dbClient.DB()), dbClient, stockSvc, redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	batchesSvc, err := batches.NewService(batches.NewRepository(dbClient.DB()), dbClient, ordersSvc, outboxSvc, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create batch service", err)
		os.Exit(1)
	}

	locker, err := idempotency.NewRedisLocker(redisClient.Raw())
	if err != nil {
		logg.Error(context.Background(), "failed to create redis locker", err)
		os.Exit(1)
	}
	locks, err := idempotency.NewService(locker, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create idempotency service", err)
		os.Exit(1)
	}

	sessionStore, err := payments.NewSessionStore(redisClient, cfg.Payment.SessionTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create session store", err)
		os.Exit(1)
	}
	paymentsSvc, err := payments.NewService(
		monnifyClient,
		sessionStore,
		locks,
		ordersSvc,
		ordersRepo,
		cfg.Payment,
		cfg.Monnify.AmountEpsilon,
		reconMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:   cfg,
			Logger:   logg,
			DB:       dbClient,
			Redis:    redisClient,
			Products: productsSvc,
			Orders:   ordersSvc,
			Batches:  batchesSvc,
			Payments: paymentsSvc,
			Gatherer: registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
