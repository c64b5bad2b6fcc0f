package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/bazaarlane/bazaarlane-backend/internal/cron"
	"github.com/bazaarlane/bazaarlane-backend/internal/ledger"
	"github.com/bazaarlane/bazaarlane-backend/internal/payoutmethods"
	"github.com/bazaarlane/bazaarlane-backend/internal/payouts"
	"github.com/bazaarlane/bazaarlane-backend/pkg/config"
	"github.com/bazaarlane/bazaarlane-backend/pkg/db"
	"github.com/bazaarlane/bazaarlane-backend/pkg/logger"
	"github.com/bazaarlane/bazaarlane-backend/pkg/metrics"
	"github.com/bazaarlane/bazaarlane-backend/pkg/migrate"
	"github.com/bazaarlane/bazaarlane-backend/pkg/pubsub"
	"github.com/bazaarlane/bazaarlane-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "payout-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	once := flag.Bool("once", false, "run a single payout sweep and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "payout-worker"

	logg = logger.New(logger.Options{
		ServiceName: "payout-worker",
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
	}

	feeRate, err := decimal.NewFromString(cfg.Payouts.PlatformFeePct)
	if err != nil {
		logg.Error(context.Background(), "invalid platform fee percentage", err)
		os.Exit(1)
	}

	ledgerService, err := ledger.NewService(ledger.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}
	methodsService, err := payoutmethods.NewService(payoutmethods.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create payout methods service", err)
		os.Exit(1)
	}

	engineParams := payouts.EngineParams{
		Ledgers: ledgerService,
		Methods: methodsService,
		Repo:    payouts.NewRepository(dbClient.DB()),
		Tx:      dbClient,
		Logger:  logg,
		FeeRate: feeRate,
		Period:  cfg.Payouts.Period,
	}
	if pubsubClient != nil {
		engineParams.Events = pubsubClient
	}
	engine, err := payouts.NewEngine(engineParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create payout engine", err)
		os.Exit(1)
	}

	job, err := cron.NewPayoutReconcileJob(cron.PayoutReconcileJobParams{
		Logger: logg,
		Engine: engine,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payout job", err)
		os.Exit(1)
	}

	env := cfg.App.Env
	if env == "" {
		env = "local"
	}
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("payout-worker:"+env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create worker lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(job),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Payouts.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})

	if *once {
		logg.Info(ctx, "running single payout sweep")
		if err := service.RunOnce(ctx); err != nil {
			logg.Error(ctx, "payout sweep failed", err)
			os.Exit(1)
		}
		return
	}

	logg.Info(ctx, "starting payout worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "payout worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "payout worker shutting down gracefully")
}
