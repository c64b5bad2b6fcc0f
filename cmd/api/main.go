package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/bazaarlane/bazaarlane-backend/api/routes"
	"github.com/bazaarlane/bazaarlane-backend/internal/ledger"
	"github.com/bazaarlane/bazaarlane-backend/internal/orders"
	"github.com/bazaarlane/bazaarlane-backend/internal/payoutmethods"
	"github.com/bazaarlane/bazaarlane-backend/internal/payouts"
	"github.com/bazaarlane/bazaarlane-backend/internal/shipping"
	"github.com/bazaarlane/bazaarlane-backend/pkg/config"
	"github.com/bazaarlane/bazaarlane-backend/pkg/db"
	"github.com/bazaarlane/bazaarlane-backend/pkg/logger"
	"github.com/bazaarlane/bazaarlane-backend/pkg/migrate"
	"github.com/bazaarlane/bazaarlane-backend/pkg/pubsub"
	"github.com/bazaarlane/bazaarlane-backend/pkg/redis"
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

	var pubsubClient *pubsub.Client
	if cfg.GCP.ProjectID != "" {
		pubsubClient, err = pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer pubsubClient.Close()
	} else {
		logg.Warn(context.Background(), "pubsub disabled, no GCP project configured")
	}

	feeRate, err := decimal.NewFromString(cfg.Payouts.PlatformFeePct)
	if err != nil {
		logg.Error(context.Background(), "invalid platform fee percentage", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	ledgerService, err := ledger.NewService(ledger.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	var ordersService orders.Service
	if pubsubClient != nil {
		ordersService, err = orders.NewService(ordersRepo, dbClient, ledgerService, pubsubClient, logg, cfg.Orders.StrictTransitions)
	} else {
		ordersService, err = orders.NewService(ordersRepo, dbClient, ledgerService, nil, logg, cfg.Orders.StrictTransitions)
	}
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	shippingService, err := shipping.NewService(ordersRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create shipping service", err)
		os.Exit(1)
	}

	methodsService, err := payoutmethods.NewService(payoutmethods.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create payout methods service", err)
		os.Exit(1)
	}

	payoutsRepo := payouts.NewRepository(dbClient.DB())
	engineParams := payouts.EngineParams{
		Ledgers: ledgerService,
		Methods: methodsService,
		Repo:    payoutsRepo,
		Tx:      dbClient,
		Logger:  logg,
		FeeRate: feeRate,
		Period:  cfg.Payouts.Period,
	}
	if pubsubClient != nil {
		engineParams.Events = pubsubClient
	}
	payoutEngine, err := payouts.NewEngine(engineParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create payout engine", err)
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
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Orders:        ordersService,
			Shipping:      shippingService,
			PayoutMethods: methodsService,
			PayoutEngine:  payoutEngine,
			PayoutRecords: payoutsRepo,
		}),
	}

	errc := make(chan error, 1)
	go func() {
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "api server shut down gracefully")
	}
}
