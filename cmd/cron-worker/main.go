package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/posterops/poster-bridge/internal/catalog"
	"github.com/posterops/poster-bridge/internal/cron"
	"github.com/posterops/poster-bridge/internal/transactions"
	"github.com/posterops/poster-bridge/pkg/config"
	"github.com/posterops/poster-bridge/pkg/logger"
	"github.com/posterops/poster-bridge/pkg/metrics"
	"github.com/posterops/poster-bridge/pkg/poster"
	"github.com/posterops/poster-bridge/pkg/pubsub"
	"github.com/posterops/poster-bridge/pkg/redis"
	"github.com/posterops/poster-bridge/pkg/secrets"
	"github.com/posterops/poster-bridge/pkg/store"
)

const lockNameFormat = "cron-worker:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx := context.Background()

	var secretProvider secrets.Provider
	if cfg.GCP.ProjectID != "" {
		manager, err := secrets.NewManager(ctx, cfg.GCP.ProjectID, logg)
		if err != nil {
			logg.Error(ctx, "failed to create secret manager client", err)
			os.Exit(1)
		}
		defer func() {
			if err := manager.Close(); err != nil {
				logg.Error(ctx, "error closing secret manager client", err)
			}
		}()
		secretProvider = manager
	}

	creds, err := secrets.ResolveBundle(ctx, secretProvider, cfg)
	if err != nil {
		logg.Error(ctx, "failed to resolve credentials", err)
		os.Exit(1)
	}

	dualParams := store.DualParams{
		WriteMongo:     cfg.Store.WriteMongo,
		WriteFirestore: cfg.Store.WriteFirestore,
		ReadFrom:       cfg.Store.ReadFrom,
		Logger:         logg,
	}
	if cfg.Store.MongoActive() {
		mongoBackend, err := store.NewMongo(ctx, cfg.Mongo, creds.MongoURI, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap mongo", err)
			os.Exit(1)
		}
		dualParams.Mongo = mongoBackend
	}
	if cfg.Store.FirestoreActive() {
		firestoreBackend, err := store.NewFirestore(ctx, cfg.FirestoreProject(), cfg.Firestore.DatabaseID, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap firestore", err)
			os.Exit(1)
		}
		dualParams.Firestore = firestoreBackend
	}

	documents, err := store.NewDual(dualParams)
	if err != nil {
		logg.Error(ctx, "failed to assemble document store", err)
		os.Exit(1)
	}
	defer func() {
		if err := documents.Close(context.Background()); err != nil {
			logg.Error(ctx, "error closing document store", err)
		}
	}()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	posterClient, err := poster.NewClient(ctx, cfg.Poster, creds.PosterToken, logg)
	if err != nil {
		logg.Error(ctx, "failed to create poster client", err)
		os.Exit(1)
	}

	var publisher *pubsub.Client
	if cfg.PubSub.Enabled {
		publisher, err = pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(ctx, "failed to create pubsub client", err)
			os.Exit(1)
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				logg.Error(ctx, "error closing pubsub client", err)
			}
		}()
	}

	catalogSource, err := catalog.NewSource(posterClient, cfg.Catalog.IgnoredCategories, logg)
	if err != nil {
		logg.Error(ctx, "failed to create catalog source", err)
		os.Exit(1)
	}
	catalogService, err := catalog.NewService(documents, catalogSource, cfg.Catalog.TTL, logg)
	if err != nil {
		logg.Error(ctx, "failed to create catalog service", err)
		os.Exit(1)
	}

	transactionParams := transactions.ServiceParams{
		Feed:          posterClient,
		Store:         documents,
		Logger:        logg,
		PerPage:       cfg.Sync.PerPage,
		MaxEmptyPages: cfg.Sync.MaxEmptyPages,
	}
	if publisher != nil {
		transactionParams.Publisher = publisher
	}
	transactionService, err := transactions.NewService(transactionParams)
	if err != nil {
		logg.Error(ctx, "failed to create transaction service", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockName(cfg.App.Env)), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(ctx, "failed to create cron lock", err)
		os.Exit(1)
	}

	catalogJob, err := cron.NewCatalogRefreshJob(cron.CatalogRefreshJobParams{
		Logger:  logg,
		Catalog: catalogService,
	})
	if err != nil {
		logg.Error(ctx, "failed to create catalog refresh job", err)
		os.Exit(1)
	}
	syncJob, err := cron.NewTransactionSyncJob(cron.TransactionSyncJobParams{
		Logger:       logg,
		Transactions: transactionService,
		WindowDays:   cfg.Cron.SyncWindowDays,
	})
	if err != nil {
		logg.Error(ctx, "failed to create transaction sync job", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(catalogJob, syncJob),
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(ctx, "failed to create cron service", err)
		os.Exit(1)
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":          cfg.App.Env,
		"serviceKind":  cfg.Service.Kind,
		"read_backend": documents.ReadBackend(),
	})
	logg.Info(runCtx, "starting cron worker")

	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(runCtx, "cron worker shutting down gracefully")
}

func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockNameFormat, env)
}
