package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/posterops/poster-bridge/api/controllers"
	"github.com/posterops/poster-bridge/api/routes"
	"github.com/posterops/poster-bridge/internal/catalog"
	"github.com/posterops/poster-bridge/internal/transactions"
	posterwebhook "github.com/posterops/poster-bridge/internal/webhooks/poster"
	"github.com/posterops/poster-bridge/internal/writeoffs"
	"github.com/posterops/poster-bridge/pkg/config"
	"github.com/posterops/poster-bridge/pkg/logger"
	"github.com/posterops/poster-bridge/pkg/metrics"
	"github.com/posterops/poster-bridge/pkg/poster"
	"github.com/posterops/poster-bridge/pkg/pubsub"
	"github.com/posterops/poster-bridge/pkg/secrets"
	"github.com/posterops/poster-bridge/pkg/store"
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

	readiness := map[string]controllers.Pinger{}
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
		readiness["mongo"] = mongoBackend
	}
	if cfg.Store.FirestoreActive() {
		firestoreBackend, err := store.NewFirestore(ctx, cfg.FirestoreProject(), cfg.Firestore.DatabaseID, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap firestore", err)
			os.Exit(1)
		}
		dualParams.Firestore = firestoreBackend
		readiness["firestore"] = firestoreBackend
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

	enricher, err := writeoffs.NewEnricher(catalogService, logg)
	if err != nil {
		logg.Error(ctx, "failed to create write-off enricher", err)
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

	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)
	webhookMetrics := metrics.NewWebhookMetrics(prometheus.DefaultRegisterer)

	webhookParams := posterwebhook.ServiceParams{
		Store:          documents,
		Poster:         posterClient,
		Enricher:       enricher,
		Logger:         logg,
		Metrics:        webhookMetrics,
		AllowedActions: cfg.Webhook.AllowedActions,
		TriggerActions: cfg.Webhook.TriggerActions,
	}
	if publisher != nil {
		webhookParams.Publisher = publisher
	}
	webhookService, err := posterwebhook.NewService(webhookParams)
	if err != nil {
		logg.Error(ctx, "failed to create webhook service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"addr":         addr,
		"read_backend": documents.ReadBackend(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			creds,
			webhookService,
			transactionService,
			catalogService,
			httpMetrics,
			prometheus.DefaultGatherer,
			readiness,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
